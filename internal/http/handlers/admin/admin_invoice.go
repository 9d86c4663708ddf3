package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/facturis-next/internal/http/handlers/shared"
	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminInvoices 检索全部用户的开票记录
func (h *Handler) GetAdminInvoices(c *gin.Context) {
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
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid user id", nil)
			return
		}
		filter.UserID = uint(userID)
	}
	if username := strings.TrimSpace(c.Query("username")); username != "" {
		user, err := h.UserRepo.GetByUsername(username)
		if err != nil {
			respondError(c, response.CodeInternal, "invoice fetch failed", err)
			return
		}
		if user == nil {
			response.SuccessWithPage(c, []struct{}{}, response.Pagination{Page: page, PageSize: pageSize})
			return
		}
		filter.UserID = user.ID
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	filter.CreatedFrom = createdFrom
	filter.CreatedTo = createdTo

	records, total, err := h.InvoiceService.AdminListRecords(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "invoice fetch failed", err)
		return
	}

	response.SuccessWithPage(c, records, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// AdminInvoiceRequest 创建/更新开票记录请求
type AdminInvoiceRequest struct {
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

// CreateAdminInvoice 手工创建开票记录
func (h *Handler) CreateAdminInvoice(c *gin.Context) {
	var req AdminInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if req.UserID == 0 || strings.TrimSpace(req.OrderID) == "" {
		respondError(c, response.CodeBadRequest, "user id and order id required", nil)
		return
	}

	record, err := h.InvoiceService.AdminUpsertRecord(service.AdminRecordInput{
		UserID:        req.UserID,
		OrderID:       req.OrderID,
		PackageID:     req.PackageID,
		CustomerName:  req.CustomerName,
		InvoiceSeries: req.InvoiceSeries,
		InvoiceNumber: req.InvoiceNumber,
		Status:        req.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		respondAdminInvoiceError(c, err, "invoice create failed")
		return
	}

	response.Success(c, record)
}

// UpdateAdminInvoice 更新开票记录
func (h *Handler) UpdateAdminInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AdminInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	record, err := h.InvoiceService.AdminUpsertRecord(service.AdminRecordInput{
		ID:            id,
		UserID:        req.UserID,
		OrderID:       req.OrderID,
		PackageID:     req.PackageID,
		CustomerName:  req.CustomerName,
		InvoiceSeries: req.InvoiceSeries,
		InvoiceNumber: req.InvoiceNumber,
		Status:        req.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		respondAdminInvoiceError(c, err, "invoice update failed")
		return
	}

	response.Success(c, record)
}

// DeleteAdminInvoice 删除开票记录
func (h *Handler) DeleteAdminInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.InvoiceService.AdminDeleteRecord(id); err != nil {
		respondAdminInvoiceError(c, err, "invoice delete failed")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func respondAdminInvoiceError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrInvoiceNotFound), errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "invoice record not found", nil)
	case errors.Is(err, service.ErrDuplicateInvoice):
		respondError(c, response.CodeConflict, "invoice already exists for this order", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
