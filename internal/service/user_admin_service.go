package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/facturis-next/internal/authz"
	"github.com/facturis-next/internal/cache"
	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/models"
	"github.com/facturis-next/internal/repository"
)

// UserAdminService 后台用户管理
type UserAdminService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	authzService *authz.Service
}

// NewUserAdminService 创建用户管理服务
func NewUserAdminService(cfg *config.Config, userRepo repository.UserRepository, authzService *authz.Service) *UserAdminService {
	return &UserAdminService{cfg: cfg, userRepo: userRepo, authzService: authzService}
}

// UserUpsertInput 用户创建/编辑参数
type UserUpsertInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   *int   `json:"status"`
}

// List 分页查询用户
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Get 查询单个用户
func (s *UserAdminService) Get(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Create 创建用户并同步 RBAC 角色
func (s *UserAdminService) Create(input UserUpsertInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = constants.RoleUser
	}
	status := constants.UserStatusActive
	if input.Status != nil {
		status = *input.Status
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	s.syncRole(user)
	return user, nil
}

// Update 编辑用户（角色/状态），必要时同步 RBAC 并吊销旧令牌
func (s *UserAdminService) Update(id uint, input UserUpsertInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	roleChanged := false
	if role := strings.TrimSpace(input.Role); role != "" && role != user.Role {
		user.Role = role
		roleChanged = true
	}
	statusChanged := false
	if input.Status != nil && *input.Status != user.Status {
		user.Status = *input.Status
		statusChanged = true
	}

	if roleChanged || statusChanged {
		// 角色或状态变化后旧令牌立即失效
		now := time.Now()
		user.TokenVersion++
		user.TokenInvalidBefore = &now
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if roleChanged {
		s.syncRole(user)
	}
	_ = cache.DelUserAuthState(context.Background(), user.ID)
	return user, nil
}

// Delete 删除用户及其全部开票记录，落盘 PDF 留给孤儿清理回收
func (s *UserAdminService) Delete(id uint) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}
	if s.authzService != nil {
		if err := s.authzService.SetUserRoles(id, nil); err != nil {
			logger.Warnw("failed to clear user roles", "user_id", id, "error", err)
		}
	}
	_ = cache.DelUserAuthState(context.Background(), id)
	return nil
}

// ResetPassword 重置用户密码并吊销旧令牌
func (s *UserAdminService) ResetPassword(id uint, newPassword string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user.PasswordHash = string(hash)
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.DelUserAuthState(context.Background(), user.ID)
	return nil
}

// BatchUpdateStatus 批量启用/禁用用户，禁用同时吊销令牌
func (s *UserAdminService) BatchUpdateStatus(ids []uint, status int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.userRepo.BatchUpdateStatus(ids, status); err != nil {
		return err
	}
	for _, id := range ids {
		_ = cache.DelUserAuthState(context.Background(), id)
	}
	return nil
}

// syncRole 把用户角色同步到 casbin
func (s *UserAdminService) syncRole(user *models.User) {
	if s.authzService == nil {
		return
	}
	if err := s.authzService.SetUserRoles(user.ID, []string{user.Role}); err != nil {
		logger.Warnw("failed to sync user role", "user_id", user.ID, "role", user.Role, "error", err)
	}
}
