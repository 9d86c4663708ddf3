package service

import (
	"context"
	"time"

	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"
)

// BulkService 批量开票/回传编排（严格顺序执行，单条失败不影响后续）
type BulkService struct {
	credentials *CredentialService
	invoices    *InvoiceService
	invoiceRepo repository.InvoiceRepository
}

// NewBulkService 创建批量服务
func NewBulkService(credentials *CredentialService, invoices *InvoiceService, invoiceRepo repository.InvoiceRepository) *BulkService {
	return &BulkService{credentials: credentials, invoices: invoices, invoiceRepo: invoiceRepo}
}

// BulkRequest 批量操作筛选条件
type BulkRequest struct {
	Statuses  string `json:"statuses"`
	SKU       string `json:"sku"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
	Force     bool   `json:"force"`
}

// BulkItem 单条处理结果（保持输入顺序）
type BulkItem struct {
	OrderID   string `json:"order_id"`
	PackageID int64  `json:"package_id"`
	OK        bool   `json:"ok"`
	Series    string `json:"series,omitempty"`
	Number    string `json:"number,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkResult 批量处理汇总
type BulkResult struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
	Errors    []string   `json:"errors"` // 摘要错误，最多保留 10 条
}

func (r *BulkResult) append(item BulkItem) {
	r.Total++
	if item.OK {
		r.Succeeded++
	} else {
		r.Failed++
		if len(r.Errors) < constants.BulkMaxErrorCount {
			r.Errors = append(r.Errors, item.OrderID+": "+item.Error)
		}
	}
	r.Items = append(r.Items, item)
}

// fetchAllOrders 按筛选条件拉全量订单（逐页直到末页）
func fetchAllOrders(ctx context.Context, client *trendyol.Client, req BulkRequest) ([]trendyol.Order, error) {
	var orders []trendyol.Order
	for page := 0; ; page++ {
		result, err := client.FetchOrders(ctx, trendyol.OrderQuery{
			Page:      page,
			Size:      constants.FetchPageSize,
			Status:    req.Statuses,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			SKU:       req.SKU,
		})
		if err != nil {
			// 首页失败直接报错，后续页失败保留已取部分
			if page == 0 {
				return nil, err
			}
			logger.Warnw("order page fetch failed, keeping partial set", "page", page, "error", err)
			break
		}
		orders = append(orders, result.Content...)
		if page+1 >= result.TotalPages || len(result.Content) == 0 {
			break
		}
	}
	return orders, nil
}

// GenerateBulk 按筛选条件批量开票
// 已有记录（非 force）或已带发票链接的订单跳过；条数受 limit 约束，默认 10
func (s *BulkService) GenerateBulk(ctx context.Context, userID uint, req BulkRequest) (*BulkResult, error) {
	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, err
	}
	tyConfig, err := s.credentials.TrendyolConfig(userID)
	if err != nil {
		return nil, err
	}
	tyClient, err := trendyol.New(tyConfig)
	if err != nil {
		return nil, err
	}
	sbClient, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, err
	}
	series, err := s.invoices.resolveSeries(ctx, sbClient, tenant)
	if err != nil {
		return nil, err
	}

	orders, err := fetchAllOrders(ctx, tyClient, req)
	if err != nil {
		return nil, err
	}

	recorded := map[string]struct{}{}
	if !req.Force {
		if recorded, err = s.invoiceRepo.OrderIDsWithInvoice(userID); err != nil {
			return nil, err
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = constants.BulkDefaultLimit
	}

	result := &BulkResult{Items: []BulkItem{}, Errors: []string{}}
	for i := range orders {
		if result.Total >= limit {
			break
		}
		order := &orders[i]
		if order.InvoiceLink != "" {
			continue
		}
		if _, ok := recorded[order.OrderNumber]; ok {
			continue
		}

		item := BulkItem{OrderID: order.OrderNumber, PackageID: order.ID}
		record, err := s.invoices.generateForOrder(ctx, userID, order, tenant, sbClient, series, req.Force)
		if err != nil {
			item.Error = err.Error()
			logger.Warnw("bulk generate item failed", "user_id", userID, "order_id", order.OrderNumber, "error", err)
		} else {
			item.OK = true
			item.Series = record.InvoiceSeries
			item.Number = record.InvoiceNumber
		}
		result.append(item)
	}
	return result, nil
}

// UploadBulk 批量把已开票订单的 PDF 回传 Trendyol
// 仅处理已有开票记录且尚未带发票链接的订单；执行前先机会式清理过期 PDF
func (s *BulkService) UploadBulk(ctx context.Context, userID uint, req BulkRequest) (*BulkResult, error) {
	if _, err := s.invoices.storage.Sweep(time.Now()); err != nil {
		logger.Warnw("retention sweep failed", "error", err)
	}

	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, err
	}
	tyConfig, err := s.credentials.TrendyolConfig(userID)
	if err != nil {
		return nil, err
	}
	tyClient, err := trendyol.New(tyConfig)
	if err != nil {
		return nil, err
	}
	sbClient, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, err
	}

	orders, err := fetchAllOrders(ctx, tyClient, req)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = constants.BulkDefaultLimit
	}

	result := &BulkResult{Items: []BulkItem{}, Errors: []string{}}
	for i := range orders {
		if result.Total >= limit {
			break
		}
		order := &orders[i]
		if order.InvoiceLink != "" {
			continue
		}
		record, err := s.invoiceRepo.GetByOrderID(userID, order.OrderNumber)
		if err != nil {
			return nil, err
		}
		if record == nil || record.Status == constants.InvoiceStatusUploaded {
			continue
		}

		item := BulkItem{OrderID: order.OrderNumber, PackageID: order.ID, Series: record.InvoiceSeries, Number: record.InvoiceNumber}
		if _, err := s.invoices.uploadRecord(ctx, record, tyClient, sbClient); err != nil {
			item.Error = err.Error()
			logger.Warnw("bulk upload item failed", "user_id", userID, "order_id", order.OrderNumber, "error", err)
		} else {
			item.OK = true
		}
		result.append(item)
	}
	return result, nil
}
