package public

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/facturis-next/internal/http/handlers/shared"
	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerateInvoiceRequest 单笔开票请求
type GenerateInvoiceRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Force   bool   `json:"force"`
}

// GenerateInvoice 为单个订单生成 SmartBill 发票
func (h *Handler) GenerateInvoice(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	record, err := h.InvoiceService.GenerateInvoice(c.Request.Context(), uid, strings.TrimSpace(req.OrderID), req.Force)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, record)
}

// GenerateInvoicesBulk 批量开票
func (h *Handler) GenerateInvoicesBulk(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req service.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.BulkService.GenerateBulk(c.Request.Context(), uid, req)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, result)
}

// UploadInvoice 将已生成的发票 PDF 上传到 Trendyol
func (h *Handler) UploadInvoice(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(c.Param("orderID"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "order id required", nil)
		return
	}

	record, err := h.InvoiceService.UploadInvoice(c.Request.Context(), uid, orderID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, record)
}

// UploadInvoicesBulk 批量上传发票
func (h *Handler) UploadInvoicesBulk(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req service.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.BulkService.UploadBulk(c.Request.Context(), uid, req)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, result)
}

// SendInvoiceLinkRequest 发票链接回传请求
type SendInvoiceLinkRequest struct {
	InvoiceLink string `json:"invoice_link" binding:"required"`
}

// SendInvoiceLink 将外部托管的发票链接推送到 Trendyol
func (h *Handler) SendInvoiceLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(c.Param("orderID"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "order id required", nil)
		return
	}

	var req SendInvoiceLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	link := strings.TrimSpace(req.InvoiceLink)
	if link == "" {
		respondError(c, response.CodeBadRequest, "invoice link required", nil)
		return
	}

	record, err := h.InvoiceService.SendInvoiceLink(c.Request.Context(), uid, orderID, link)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, record)
}

// ReverseInvoice 对已开发票冲红
func (h *Handler) ReverseInvoice(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(c.Param("orderID"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "order id required", nil)
		return
	}

	record, err := h.InvoiceService.ReverseInvoice(c.Request.Context(), uid, orderID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, record)
}

// ListInvoiceRecords 查询当前用户的开票记录
func (h *Handler) ListInvoiceRecords(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.InvoiceListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  strings.TrimSpace(c.Query("order_id")),
		Series:   strings.TrimSpace(c.Query("series")),
		Number:   strings.TrimSpace(c.Query("number")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if from := parseDateQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseDateQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}

	records, total, err := h.InvoiceService.ListRecords(uid, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "invoice list failed", err)
		return
	}

	response.SuccessWithPage(c, records, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetInvoicePDF 获取发票 PDF（本地优先，缺失时回源 SmartBill）
func (h *Handler) GetInvoicePDF(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(c.Param("orderID"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "order id required", nil)
		return
	}

	data, record, err := h.InvoiceService.GetInvoicePDF(c.Request.Context(), uid, orderID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	filename := "invoice_" + record.InvoiceSeries + record.InvoiceNumber + ".pdf"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

// DeleteInvoiceRecord 删除开票记录及本地 PDF
func (h *Handler) DeleteInvoiceRecord(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(c.Param("orderID"))
	if orderID == "" {
		respondError(c, response.CodeBadRequest, "order id required", nil)
		return
	}

	if err := h.InvoiceService.DeleteRecord(uid, orderID); err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func parseDateQuery(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
