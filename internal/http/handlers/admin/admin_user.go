package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/facturis-next/internal/http/handlers/shared"
	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid status", nil)
			return
		}
		filter.Status = &status
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

	users, total, err := h.UserAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	response.SuccessWithPage(c, users, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.UserAdminService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	response.Success(c, user)
}

// AdminUserRequest 创建/更新用户请求
type AdminUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   *int   `json:"status"`
}

// CreateAdminUser 创建用户
func (h *Handler) CreateAdminUser(c *gin.Context) {
	var req AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(c, response.CodeBadRequest, "username and password required", nil)
		return
	}

	user, err := h.UserAdminService.Create(service.UserUpsertInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		respondAdminUserError(c, err, "user create failed")
		return
	}

	response.Success(c, user)
}

// UpdateAdminUser 更新用户
func (h *Handler) UpdateAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.UserAdminService.Update(id, service.UserUpsertInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		respondAdminUserError(c, err, "user update failed")
		return
	}

	response.Success(c, user)
}

// DeleteAdminUser 删除用户
func (h *Handler) DeleteAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.UserAdminService.Delete(id); err != nil {
		respondAdminUserError(c, err, "user delete failed")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ResetAdminUserPasswordRequest 重置密码请求
type ResetAdminUserPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// ResetAdminUserPassword 重置用户密码并吊销已签发 Token
func (h *Handler) ResetAdminUserPassword(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ResetAdminUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserAdminService.ResetPassword(id, req.Password); err != nil {
		respondAdminUserError(c, err, "password reset failed")
		return
	}

	response.Success(c, gin.H{"reset": true})
}

// BatchUpdateUserStatusRequest 批量更新用户状态请求
type BatchUpdateUserStatusRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
	Status  int    `json:"status"`
}

// BatchUpdateUserStatus 批量启用/禁用用户
func (h *Handler) BatchUpdateUserStatus(c *gin.Context) {
	var req BatchUpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if len(req.UserIDs) == 0 {
		respondError(c, response.CodeBadRequest, "user ids required", nil)
		return
	}

	if err := h.UserAdminService.BatchUpdateStatus(req.UserIDs, req.Status); err != nil {
		respondError(c, response.CodeInternal, "batch status update failed", err)
		return
	}

	response.Success(c, gin.H{"updated": len(req.UserIDs)})
}

func respondAdminUserError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "user not found", nil)
	case errors.Is(err, service.ErrUsernameExists):
		respondError(c, response.CodeBadRequest, "username already taken", nil)
	case errors.Is(err, service.ErrWeakPassword):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	rawID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rawID == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(rawID), true
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid time format")
}
