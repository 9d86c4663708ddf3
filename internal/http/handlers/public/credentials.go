package public

import (
	"errors"

	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProfile 获取当前用户信息与凭据配置状态
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.AuthService.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}

	profile, err := h.CredentialService.Profile(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}

	response.Success(c, gin.H{
		"user":        userSummary(user),
		"credentials": profile,
	})
}

// UpdateTrendyolCredentialsRequest Trendyol 凭据更新请求
type UpdateTrendyolCredentialsRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
	APIKey     string `json:"api_key" binding:"required"`
	APISecret  string `json:"api_secret" binding:"required"`
}

// UpdateTrendyolCredentials 保存当前用户的 Trendyol 凭据
func (h *Handler) UpdateTrendyolCredentials(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpdateTrendyolCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	err := h.CredentialService.SetTrendyolCredentials(uid, service.TrendyolCredentialsInput{
		SupplierID: req.SupplierID,
		APIKey:     req.APIKey,
		APISecret:  req.APISecret,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "credentials update failed", err)
		return
	}

	response.Success(c, gin.H{"updated": true})
}

// UpdateSmartBillCredentialsRequest SmartBill 凭据更新请求
type UpdateSmartBillCredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Token    string `json:"token" binding:"required"`
	CIF      string `json:"cif" binding:"required"`
	Series   string `json:"series"`
	Gestiune string `json:"gestiune"`
}

// UpdateSmartBillCredentials 保存当前用户的 SmartBill 凭据与开票偏好
func (h *Handler) UpdateSmartBillCredentials(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpdateSmartBillCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	err := h.CredentialService.SetSmartBillCredentials(uid, service.SmartBillCredentialsInput{
		Email:    req.Email,
		Token:    req.Token,
		CIF:      req.CIF,
		Series:   req.Series,
		Gestiune: req.Gestiune,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "credentials update failed", err)
		return
	}

	response.Success(c, gin.H{"updated": true})
}
