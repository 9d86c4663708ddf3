package admin

import (
	"time"

	"github.com/facturis-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SweepStorage 立即执行 PDF 留存清理
func (h *Handler) SweepStorage(c *gin.Context) {
	result, err := h.StorageService.Sweep(time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "storage sweep failed", err)
		return
	}

	requestLog(c).Infow("storage_sweep_triggered",
		"removed", result.Removed,
		"orphans", result.Orphans,
		"errors", result.Errors,
	)
	response.Success(c, result)
}
