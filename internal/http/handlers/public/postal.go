package public

import (
	"strings"

	"github.com/facturis-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LookupPostal 查询邮编对应的城市与县
func (h *Handler) LookupPostal(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "postal code required", nil)
		return
	}

	address, err := h.InvoiceService.LookupPostal(c.Request.Context(), code)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	response.Success(c, address)
}
