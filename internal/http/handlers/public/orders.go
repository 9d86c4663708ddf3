package public

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/trendyol"

	"github.com/gin-gonic/gin"
)

// ListOrders 查询 Trendyol 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	query := trendyol.OrderQuery{
		Page:        page,
		Size:        size,
		Status:      strings.TrimSpace(c.Query("status")),
		StartDate:   strings.TrimSpace(c.Query("start_date")),
		EndDate:     strings.TrimSpace(c.Query("end_date")),
		OrderNumber: strings.TrimSpace(c.Query("order_number")),
		SKU:         strings.TrimSpace(c.Query("sku")),
	}

	result, err := h.OrderService.ListOrders(c.Request.Context(), uid, query)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, result)
}

// GetOrder 按订单号查询单个订单
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderNumber := strings.TrimSpace(c.Param("id"))
	if orderNumber == "" {
		respondError(c, response.CodeBadRequest, "order number required", nil)
		return
	}

	order, err := h.OrderService.GetOrder(c.Request.Context(), uid, orderNumber)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, order)
}

// ListProducts 查询 Trendyol 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	query := trendyol.ProductQuery{
		Page:    page,
		Size:    size,
		Barcode: strings.TrimSpace(c.Query("barcode")),
	}
	if raw := strings.TrimSpace(c.Query("approved")); raw != "" {
		approved := raw == "true" || raw == "1"
		query.Approved = &approved
	}

	result, err := h.OrderService.ListProducts(c.Request.Context(), uid, query)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, result)
}

// ListShipmentPackages 查询发货包裹列表
func (h *Handler) ListShipmentPackages(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	query := trendyol.PackageQuery{
		Page:        page,
		Size:        size,
		Status:      strings.TrimSpace(c.Query("status")),
		StartDate:   strings.TrimSpace(c.Query("start_date")),
		EndDate:     strings.TrimSpace(c.Query("end_date")),
		OrderNumber: strings.TrimSpace(c.Query("order_number")),
	}

	result, err := h.OrderService.ListPackages(c.Request.Context(), uid, query)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, result)
}

// DownloadLabel 下载包裹面单 PDF
func (h *Handler) DownloadLabel(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	packageID, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || packageID <= 0 {
		respondError(c, response.CodeBadRequest, "invalid package id", nil)
		return
	}

	data, err := h.OrderService.DownloadLabel(c.Request.Context(), uid, packageID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=label_"+strconv.FormatInt(packageID, 10)+".pdf")
	c.Data(http.StatusOK, "application/pdf", data)
}
