package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturis-next/internal/cache"
	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/models"
	"github.com/facturis-next/internal/postal"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"
)

// InvoiceService 开票编排：Trendyol 订单 → SmartBill 发票 → PDF 回传
type InvoiceService struct {
	cfg         *config.Config
	credentials *CredentialService
	invoiceRepo repository.InvoiceRepository
	storage     *StorageService
	postal      *postal.Client
}

// NewInvoiceService 创建开票服务
func NewInvoiceService(cfg *config.Config, credentials *CredentialService, invoiceRepo repository.InvoiceRepository, storage *StorageService) *InvoiceService {
	return &InvoiceService{
		cfg:         cfg,
		credentials: credentials,
		invoiceRepo: invoiceRepo,
		storage:     storage,
		postal:      postal.New(cfg.Postal.BaseURL, time.Duration(cfg.Postal.TimeoutSeconds)*time.Second),
	}
}

// LookupPostal 邮编反查城市/县，带 Redis 缓存
func (s *InvoiceService) LookupPostal(ctx context.Context, code string) (*postal.Address, error) {
	if entry, hit, err := cache.GetPostal(ctx, code); err == nil && hit {
		return &postal.Address{City: entry.City, County: entry.County}, nil
	}
	addr, err := s.postal.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, postal.ErrNotFound) {
			return nil, fmt.Errorf("%w: postal code %s", ErrNotFound, code)
		}
		return nil, err
	}
	ttl := time.Duration(s.cfg.Postal.CacheTTLSeconds) * time.Second
	_ = cache.SetPostal(ctx, code, &cache.PostalEntry{City: addr.City, County: addr.County}, ttl)
	return addr, nil
}

// postalHint 邮编反查失败时返回 nil，不影响开票
func (s *InvoiceService) postalHint(ctx context.Context, code string) *postal.Address {
	if code == "" {
		return nil
	}
	addr, err := s.LookupPostal(ctx, code)
	if err != nil {
		logger.Debugw("postal lookup miss", "code", code, "error", err)
		return nil
	}
	return addr
}

// resolveSeries 确定开票系列：优先用户配置，否则取 SmartBill 第一个系列
func (s *InvoiceService) resolveSeries(ctx context.Context, client *smartbill.Client, tenant *SmartBillTenant) (string, error) {
	if tenant.Series != "" {
		return tenant.Series, nil
	}
	series, err := client.FetchSeries(ctx, constants.DocumentTypeInvoice)
	if err != nil {
		return "", err
	}
	if len(series) == 0 {
		return "", ErrNoInvoiceSeries
	}
	return series[0].Name, nil
}

// GenerateInvoice 为单个订单开票
// 已有记录且未强制时返回现有记录与 ErrDuplicateInvoice；force 时替换记录并重新开票
func (s *InvoiceService) GenerateInvoice(ctx context.Context, userID uint, orderID string, force bool) (*models.InvoiceRecord, error) {
	existing, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !force {
		return existing, fmt.Errorf("%w: %s/%s", ErrDuplicateInvoice, existing.InvoiceSeries, existing.InvoiceNumber)
	}

	// 凭据校验前置，未配置时不触网
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

	order, err := fetchOrderByNumber(ctx, tyClient, orderID)
	if err != nil {
		return nil, err
	}
	series, err := s.resolveSeries(ctx, sbClient, tenant)
	if err != nil {
		return nil, err
	}
	return s.generateForOrder(ctx, userID, order, tenant, sbClient, series, force)
}

// generateForOrder 调 SmartBill 开票并落库，单笔与批量共用
func (s *InvoiceService) generateForOrder(ctx context.Context, userID uint, order *trendyol.Order, tenant *SmartBillTenant, client *smartbill.Client, series string, force bool) (*models.InvoiceRecord, error) {
	hint := s.postalHint(ctx, invoicePostalCode(order))
	draft := BuildInvoiceDraft(order, tenant, series, hint, time.Now())

	result, err := client.CreateInvoice(ctx, &draft)
	if err != nil {
		return nil, err
	}

	record := &models.InvoiceRecord{
		UserID:        userID,
		OrderID:       order.OrderNumber,
		PackageID:     order.ID,
		CustomerName:  draft.Client.Name,
		InvoiceSeries: result.Series,
		InvoiceNumber: result.Number,
		Status:        constants.InvoiceStatusGenerated,
		Amount:        orderAmount(order),
		Currency:      draft.Currency,
	}
	if force {
		err = s.invoiceRepo.ReplaceForOrder(record)
	} else {
		err = s.invoiceRepo.Create(record)
	}
	if err != nil {
		return nil, err
	}
	logger.Infow("invoice generated",
		"user_id", userID, "order_id", order.OrderNumber,
		"series", result.Series, "number", result.Number)
	return record, nil
}

// readLocalPDF 读取落盘 PDF，空文件视为缺失
func readLocalPDF(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf file: %s", path)
	}
	return data, nil
}

// invoicePostalCode 取发票地址邮编，缺失时退回发货地址
func invoicePostalCode(order *trendyol.Order) string {
	if order.InvoiceAddress.PostalCode != "" {
		return order.InvoiceAddress.PostalCode
	}
	return order.ShipmentAddress.PostalCode
}

// orderAmount 订单总额快照，totalPrice 缺失时退回 grossAmount
func orderAmount(order *trendyol.Order) models.Money {
	amount := order.TotalPrice
	if amount == 0 {
		amount = order.GrossAmount
	}
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(amount))
}

// UploadInvoice 把发票 PDF 回传 Trendyol
// 先机会式清理过期 PDF，再取 SmartBill PDF 落盘并上传，成功后记录置为 uploaded
func (s *InvoiceService) UploadInvoice(ctx context.Context, userID uint, orderID string) (*models.InvoiceRecord, error) {
	if _, err := s.storage.Sweep(time.Now()); err != nil {
		logger.Warnw("retention sweep failed", "error", err)
	}

	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
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
	return s.uploadRecord(ctx, record, tyClient, sbClient)
}

// markFailed 将记录状态置为 failed，写库失败仅记日志
func (s *InvoiceService) markFailed(record *models.InvoiceRecord) {
	if err := s.invoiceRepo.UpdateFields(record.ID, map[string]interface{}{"status": constants.InvoiceStatusFailed}); err != nil {
		logger.Warnw("failed to persist failed status",
			"record_id", record.ID, "order_id", record.OrderID, "error", err)
		return
	}
	record.Status = constants.InvoiceStatusFailed
}

// uploadRecord 拉 PDF、落盘、回传，单笔与批量共用
// 任一步失败记录置为 failed，后续可重新提交
func (s *InvoiceService) uploadRecord(ctx context.Context, record *models.InvoiceRecord, tyClient *trendyol.Client, sbClient *smartbill.Client) (*models.InvoiceRecord, error) {
	pdf, err := sbClient.FetchInvoicePDF(ctx, record.InvoiceSeries, record.InvoiceNumber)
	if err != nil {
		s.markFailed(record)
		return nil, err
	}

	path, err := s.storage.SavePDF(record.UserID, record.InvoiceSeries, record.InvoiceNumber, pdf)
	if err != nil {
		s.markFailed(record)
		return nil, err
	}

	err = tyClient.UploadInvoiceFile(ctx, trendyol.UploadInvoiceInput{
		PackageID:     record.PackageID,
		Filename:      fmt.Sprintf("invoice_%d_%s_%s.pdf", record.PackageID, record.InvoiceSeries, record.InvoiceNumber),
		PDF:           pdf,
		InvoiceNumber: record.InvoiceSeries + record.InvoiceNumber,
	})
	if err != nil {
		s.markFailed(record)
		return nil, err
	}

	now := time.Now()
	record.Status = constants.InvoiceStatusUploaded
	record.PDFPath = path
	record.UploadedAt = &now
	if err := s.invoiceRepo.Update(record); err != nil {
		return nil, err
	}
	logger.Infow("invoice uploaded",
		"user_id", record.UserID, "order_id", record.OrderID,
		"package_id", record.PackageID)
	return record, nil
}

// SendInvoiceLink 向 Trendyol 推送外部托管的发票链接（文件上传之外的回传通道）
func (s *InvoiceService) SendInvoiceLink(ctx context.Context, userID uint, orderID, link string) (*models.InvoiceRecord, error) {
	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
	}

	tyConfig, err := s.credentials.TrendyolConfig(userID)
	if err != nil {
		return nil, err
	}
	tyClient, err := trendyol.New(tyConfig)
	if err != nil {
		return nil, err
	}

	err = tyClient.SendInvoiceLink(ctx, trendyol.SendInvoiceLinkInput{
		PackageID:     record.PackageID,
		InvoiceLink:   link,
		InvoiceNumber: record.InvoiceSeries + record.InvoiceNumber,
	})
	if err != nil {
		s.markFailed(record)
		return nil, err
	}

	now := time.Now()
	record.Status = constants.InvoiceStatusUploaded
	record.UploadedAt = &now
	if err := s.invoiceRepo.Update(record); err != nil {
		return nil, err
	}
	logger.Infow("invoice link sent",
		"user_id", record.UserID, "order_id", record.OrderID,
		"package_id", record.PackageID)
	return record, nil
}

// ReverseInvoice 红冲发票并把记录置为 reversed
func (s *InvoiceService) ReverseInvoice(ctx context.Context, userID uint, orderID string) (*models.InvoiceRecord, error) {
	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
	}

	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, err
	}
	sbClient, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, err
	}
	if err := sbClient.ReverseInvoice(ctx, record.InvoiceSeries, record.InvoiceNumber, ""); err != nil {
		s.markFailed(record)
		return nil, err
	}

	record.Status = constants.InvoiceStatusReversed
	if err := s.invoiceRepo.Update(record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetInvoicePDF 返回发票 PDF：优先本地落盘文件，缺失时回源 SmartBill
func (s *InvoiceService) GetInvoicePDF(ctx context.Context, userID uint, orderID string) ([]byte, *models.InvoiceRecord, error) {
	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
	}

	if record.PDFPath != "" {
		if data, err := readLocalPDF(record.PDFPath); err == nil {
			return data, record, nil
		}
	}

	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, nil, err
	}
	sbClient, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, nil, err
	}
	data, err := sbClient.FetchInvoicePDF(ctx, record.InvoiceSeries, record.InvoiceNumber)
	if err != nil {
		if errors.Is(err, smartbill.ErrInvoiceNotFound) {
			return nil, nil, fmt.Errorf("%w: pdf for order %s", ErrNotFound, orderID)
		}
		return nil, nil, err
	}
	return data, record, nil
}

// ListRecords 分页查询某用户的开票记录
func (s *InvoiceService) ListRecords(userID uint, filter repository.InvoiceListFilter) ([]models.InvoiceRecord, int64, error) {
	filter.UserID = userID
	return s.invoiceRepo.List(filter)
}

// GetRecord 查询某用户某订单的开票记录
func (s *InvoiceService) GetRecord(userID uint, orderID string) (*models.InvoiceRecord, error) {
	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
	}
	return record, nil
}

// DeleteRecord 删除开票记录并移除本地 PDF
func (s *InvoiceService) DeleteRecord(userID uint, orderID string) error {
	record, err := s.invoiceRepo.GetByOrderID(userID, orderID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: order %s", ErrInvoiceNotFound, orderID)
	}
	if err := s.storage.Remove(record.PDFPath); err != nil {
		logger.Warnw("failed to remove invoice pdf", "path", record.PDFPath, "error", err)
	}
	return s.invoiceRepo.Delete(record.ID)
}

// AdminListRecords 后台跨用户查询开票记录
func (s *InvoiceService) AdminListRecords(filter repository.InvoiceListFilter) ([]models.InvoiceRecord, int64, error) {
	return s.invoiceRepo.List(filter)
}

// AdminRecordInput 后台手工录入/编辑开票记录
type AdminRecordInput struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	OrderID       string  `json:"order_id"`
	PackageID     int64   `json:"package_id"`
	CustomerName  string  `json:"customer_name"`
	InvoiceSeries string  `json:"invoice_series"`
	InvoiceNumber string  `json:"invoice_number"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// AdminUpsertRecord 后台新增或编辑开票记录
func (s *InvoiceService) AdminUpsertRecord(input AdminRecordInput) (*models.InvoiceRecord, error) {
	if input.ID > 0 {
		record, err := s.invoiceRepo.GetByID(input.ID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("%w: id %d", ErrInvoiceNotFound, input.ID)
		}
		record.PackageID = input.PackageID
		record.CustomerName = input.CustomerName
		record.InvoiceSeries = input.InvoiceSeries
		record.InvoiceNumber = input.InvoiceNumber
		if input.Status != "" {
			record.Status = input.Status
		}
		if input.Amount > 0 {
			record.Amount = models.NewMoneyFromDecimal(decimal.NewFromFloat(input.Amount))
		}
		if input.Currency != "" {
			record.Currency = input.Currency
		}
		if err := s.invoiceRepo.Update(record); err != nil {
			return nil, err
		}
		return record, nil
	}

	record := &models.InvoiceRecord{
		UserID:        input.UserID,
		OrderID:       input.OrderID,
		PackageID:     input.PackageID,
		CustomerName:  input.CustomerName,
		InvoiceSeries: input.InvoiceSeries,
		InvoiceNumber: input.InvoiceNumber,
		Status:        input.Status,
		Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(input.Amount)),
		Currency:      input.Currency,
	}
	if record.Status == "" {
		record.Status = constants.InvoiceStatusGenerated
	}
	if record.Currency == "" {
		record.Currency = constants.DefaultCurrency
	}
	if err := s.invoiceRepo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// AdminDeleteRecord 后台删除开票记录并移除本地 PDF
func (s *InvoiceService) AdminDeleteRecord(id uint) error {
	record, err := s.invoiceRepo.GetByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: id %d", ErrInvoiceNotFound, id)
	}
	if err := s.storage.Remove(record.PDFPath); err != nil {
		logger.Warnw("failed to remove invoice pdf", "path", record.PDFPath, "error", err)
	}
	return s.invoiceRepo.Delete(record.ID)
}

// ListSeries 查询 SmartBill 发票系列
func (s *InvoiceService) ListSeries(ctx context.Context, userID uint) ([]smartbill.Series, error) {
	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, err
	}
	client, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, err
	}
	return client.FetchSeries(ctx, constants.DocumentTypeInvoice)
}

// ListSmartBillInvoices 透传 SmartBill 发票列表查询
func (s *InvoiceService) ListSmartBillInvoices(ctx context.Context, userID uint, query smartbill.ListInvoicesQuery) ([]byte, error) {
	tenant, err := s.credentials.SmartBillTenant(userID)
	if err != nil {
		return nil, err
	}
	client, err := smartbill.New(tenant.Config)
	if err != nil {
		return nil, err
	}
	return client.ListInvoices(ctx, query)
}
