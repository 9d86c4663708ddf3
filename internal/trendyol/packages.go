package trendyol

import (
	"context"
	"strconv"
	"strings"
)

// PackageQuery 发货包裹查询条件
type PackageQuery struct {
	Page        int
	Size        int
	Status      string
	StartDate   string
	EndDate     string
	OrderNumber string
}

// FetchShipmentPackages 查询发货包裹（返回结构与订单一致）
func (c *Client) FetchShipmentPackages(ctx context.Context, query PackageQuery) (*OrderPage, error) {
	if query.Size <= 0 {
		query.Size = 50
	}
	if query.Page < 0 {
		query.Page = 0
	}

	params := map[string]string{
		"page": strconv.Itoa(query.Page),
		"size": strconv.Itoa(query.Size),
	}
	if v := strings.TrimSpace(query.Status); v != "" {
		params["status"] = v
	}
	if v := formatDate(query.StartDate); v != "" {
		params["startDate"] = v
	}
	if v := formatDate(query.EndDate); v != "" {
		params["endDate"] = v
	}
	if v := strings.TrimSpace(query.OrderNumber); v != "" {
		params["orderNumber"] = v
	}

	var page OrderPage
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&page).
		Get(c.supplierURL("/suppliers/%s/shipment-packages", c.cfg.SupplierID))
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return &page, nil
}

// DownloadCargoLabel 下载包裹面单（204 或空响应视为不存在）
func (c *Client) DownloadCargoLabel(ctx context.Context, packageID int64) ([]byte, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(c.supplierURL("/suppliers/%s/shipment-packages/%d/cargo-label", c.cfg.SupplierID, packageID))
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	body := resp.Body()
	if resp.StatusCode() == 204 || len(body) == 0 {
		return nil, ErrNotFound
	}
	return body, nil
}
