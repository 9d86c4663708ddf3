package public

import (
	"net/http"
	"strings"

	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/smartbill"

	"github.com/gin-gonic/gin"
)

// ListInvoiceSeries 查询 SmartBill 发票系列
func (h *Handler) ListInvoiceSeries(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	series, err := h.InvoiceService.ListSeries(c.Request.Context(), uid)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, series)
}

// ListSmartBillInvoices 查询 SmartBill 已开发票（原样透传响应体）
func (h *Handler) ListSmartBillInvoices(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	query := smartbill.ListInvoicesQuery{
		Series:    strings.TrimSpace(c.Query("series")),
		Number:    strings.TrimSpace(c.Query("number")),
		IssueDate: strings.TrimSpace(c.Query("issue_date")),
	}

	body, err := h.InvoiceService.ListSmartBillInvoices(c.Request.Context(), uid, query)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
