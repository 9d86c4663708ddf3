package trendyol

import (
	"context"
	"strconv"
	"strings"
)

// Product 商品
type Product struct {
	ID            string  `json:"id"`
	Barcode       string  `json:"barcode"`
	Title         string  `json:"title"`
	ProductMainID string  `json:"productMainId"`
	StockCode     string  `json:"stockCode"`
	Brand         string  `json:"brand"`
	Quantity      int     `json:"quantity"`
	ListPrice     float64 `json:"listPrice"`
	SalePrice     float64 `json:"salePrice"`
	VATRate       float64 `json:"vatRate"`
	Approved      bool    `json:"approved"`
	OnSale        bool    `json:"onSale"`
}

// ProductPage 商品分页结果
type ProductPage struct {
	Content       []Product `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// ProductQuery 商品查询条件
type ProductQuery struct {
	Page     int
	Size     int
	Barcode  string
	Approved *bool
}

// FetchProducts 查询商品列表
func (c *Client) FetchProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
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
	if v := strings.TrimSpace(query.Barcode); v != "" {
		params["barcode"] = v
	}
	if query.Approved != nil {
		params["approved"] = strconv.FormatBool(*query.Approved)
	}

	var page ProductPage
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&page).
		Get(c.supplierURL("/suppliers/%s/products", c.cfg.SupplierID))
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return &page, nil
}
