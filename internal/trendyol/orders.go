package trendyol

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Address 订单地址
type Address struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	District    string `json:"district"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
	FullAddress string `json:"fullAddress"`
}

// OrderLine 订单行
type OrderLine struct {
	ProductName string  `json:"productName"`
	MerchantSKU string  `json:"merchantSku"`
	SKU         string  `json:"sku"`
	Barcode     string  `json:"barcode"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"`
	VATRate     float64 `json:"vatRate"`
}

// Order 订单（orders 接口按发货包裹返回，id 即包裹编号）
type Order struct {
	ID                int64       `json:"id"`
	OrderNumber       string      `json:"orderNumber"`
	Status            string      `json:"status"`
	OrderDate         int64       `json:"orderDate"` // 毫秒时间戳
	CustomerFirstName string      `json:"customerFirstName"`
	CustomerLastName  string      `json:"customerLastName"`
	CustomerEmail     string      `json:"customerEmail"`
	IdentityNumber    string      `json:"identityNumber"`
	CurrencyCode      string      `json:"currencyCode"`
	GrossAmount       float64     `json:"grossAmount"`
	TotalPrice        float64     `json:"totalPrice"`
	TotalDiscount     float64     `json:"totalDiscount"`
	CargoTrackingLink string      `json:"cargoTrackingLink"`
	InvoiceLink       string      `json:"invoiceLink"`
	InvoiceAddress    Address     `json:"invoiceAddress"`
	ShipmentAddress   Address     `json:"shipmentAddress"`
	Lines             []OrderLine `json:"lines"`
}

// OrderPage 订单分页结果
type OrderPage struct {
	Content       []Order `json:"content"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalElements int     `json:"totalElements"`
	TotalPages    int     `json:"totalPages"`
}

// OrderQuery 订单查询条件
type OrderQuery struct {
	Page        int
	Size        int
	Status      string // 支持逗号分隔多状态
	StartDate   string
	EndDate     string
	OrderNumber string
	SKU         string
}

const fetchPageSize = 200

// FetchOrders 查询订单
// 多状态或 SKU 过滤时先拉全量再在本地合并、去重、按下单时间升序排序并重新分页；
// 其余场景直接透传单页请求。
func (c *Client) FetchOrders(ctx context.Context, query OrderQuery) (*OrderPage, error) {
	if query.Size <= 0 {
		query.Size = 50
	}
	if query.Page < 0 {
		query.Page = 0
	}

	statuses := splitStatuses(query.Status)
	if len(statuses) > 1 || strings.TrimSpace(query.SKU) != "" {
		return c.fetchOrdersMerged(ctx, statuses, query)
	}

	params := c.orderParams(query)
	params["page"] = strconv.Itoa(query.Page)
	params["size"] = strconv.Itoa(query.Size)
	if len(statuses) == 1 {
		params["status"] = statuses[0]
	}

	var page OrderPage
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&page).
		Get(c.integrationURL("/order/sellers/%s/orders", c.cfg.SupplierID))
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return &page, nil
}

// fetchOrdersMerged 逐状态拉取全部分页并合并
func (c *Client) fetchOrdersMerged(ctx context.Context, statuses []string, query OrderQuery) (*OrderPage, error) {
	if len(statuses) == 0 {
		statuses = []string{""}
	}

	merged := make([]Order, 0)
	seen := make(map[string]struct{})
	for _, status := range statuses {
		fetchPage := 0
		for {
			params := c.orderParams(query)
			params["page"] = strconv.Itoa(fetchPage)
			params["size"] = strconv.Itoa(fetchPageSize)
			if status != "" {
				params["status"] = status
			}

			var page OrderPage
			resp, err := c.rest.R().
				SetContext(ctx).
				SetQueryParams(params).
				SetResult(&page).
				Get(c.integrationURL("/order/sellers/%s/orders", c.cfg.SupplierID))
			if err != nil || resp.IsError() {
				// 首页失败视为整体失败，后续分页失败保留已取得的部分结果
				if fetchPage == 0 && len(merged) == 0 {
					return nil, requestError(resp, err)
				}
				break
			}

			for _, order := range page.Content {
				key := orderKey(order)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				merged = append(merged, order)
			}

			if len(page.Content) < fetchPageSize {
				break
			}
			fetchPage++
		}
	}

	if sku := strings.TrimSpace(query.SKU); sku != "" {
		filtered := merged[:0]
		for _, order := range merged {
			if orderMatchesSKU(order, sku) {
				filtered = append(filtered, order)
			}
		}
		merged = filtered
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].OrderDate < merged[j].OrderDate
	})

	return paginateOrders(merged, query.Page, query.Size), nil
}

func (c *Client) orderParams(query OrderQuery) map[string]string {
	params := map[string]string{
		"orderByField":     "CreatedDate",
		"orderByDirection": "ASC",
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
	return params
}

func splitStatuses(status string) []string {
	parts := strings.Split(status, ",")
	statuses := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			statuses = append(statuses, trimmed)
		}
	}
	return statuses
}

// orderKey 去重键：同一订单可能以多个状态返回
func orderKey(order Order) string {
	if order.ID != 0 {
		return fmt.Sprintf("id:%d", order.ID)
	}
	return "no:" + order.OrderNumber
}

func orderMatchesSKU(order Order, sku string) bool {
	needle := strings.ToLower(sku)
	for _, line := range order.Lines {
		if strings.Contains(strings.ToLower(line.MerchantSKU), needle) ||
			strings.Contains(strings.ToLower(line.Barcode), needle) {
			return true
		}
	}
	return false
}

func paginateOrders(orders []Order, page, size int) *OrderPage {
	total := len(orders)
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &OrderPage{
		Content:       orders[start:end],
		Page:          page,
		Size:          end - start,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
