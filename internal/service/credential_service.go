package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/crypto"
	"github.com/facturis-next/internal/models"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"
)

// CredentialService 每用户接口凭据管理（密文落库，仅在调用外部接口前解密）
type CredentialService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	cipher   *crypto.Cipher
}

// NewCredentialService 创建凭据服务
func NewCredentialService(cfg *config.Config, userRepo repository.UserRepository, cipher *crypto.Cipher) *CredentialService {
	return &CredentialService{cfg: cfg, userRepo: userRepo, cipher: cipher}
}

// TrendyolCredentialsInput Trendyol 凭据写入参数
type TrendyolCredentialsInput struct {
	SupplierID string
	APIKey     string
	APISecret  string
}

// SetTrendyolCredentials 更新 Trendyol 凭据（全量覆盖）
func (s *CredentialService) SetTrendyolCredentials(userID uint, input TrendyolCredentialsInput) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	if user.TrendyolSupplierID, err = s.cipher.Encrypt(strings.TrimSpace(input.SupplierID)); err != nil {
		return err
	}
	if user.TrendyolAPIKey, err = s.cipher.Encrypt(strings.TrimSpace(input.APIKey)); err != nil {
		return err
	}
	if user.TrendyolAPISecret, err = s.cipher.Encrypt(strings.TrimSpace(input.APISecret)); err != nil {
		return err
	}
	return s.userRepo.Update(user)
}

// SmartBillCredentialsInput SmartBill 凭据写入参数
type SmartBillCredentialsInput struct {
	Email    string
	Token    string
	CIF      string
	Series   string
	Gestiune string
}

// SetSmartBillCredentials 更新 SmartBill 凭据与开票偏好（全量覆盖）
func (s *CredentialService) SetSmartBillCredentials(userID uint, input SmartBillCredentialsInput) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	if user.SmartBillEmail, err = s.cipher.Encrypt(strings.TrimSpace(input.Email)); err != nil {
		return err
	}
	if user.SmartBillToken, err = s.cipher.Encrypt(strings.TrimSpace(input.Token)); err != nil {
		return err
	}
	if user.SmartBillCIF, err = s.cipher.Encrypt(strings.TrimSpace(input.CIF)); err != nil {
		return err
	}
	user.SmartBillSeries = strings.TrimSpace(input.Series)
	user.Gestiune = strings.TrimSpace(input.Gestiune)
	return s.userRepo.Update(user)
}

// TrendyolConfig 解密某用户的 Trendyol 接入配置
// 凭据缺失返回 ErrIncompleteTrendyolCredentials，密文损坏返回 ErrCredentialsCorrupted
func (s *CredentialService) TrendyolConfig(userID uint) (trendyol.Config, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return trendyol.Config{}, err
	}
	if user == nil {
		return trendyol.Config{}, ErrNotFound
	}
	return s.trendyolConfigFor(user)
}

func (s *CredentialService) trendyolConfigFor(user *models.User) (trendyol.Config, error) {
	supplierID, err := s.decrypt(user.TrendyolSupplierID)
	if err != nil {
		return trendyol.Config{}, err
	}
	apiKey, err := s.decrypt(user.TrendyolAPIKey)
	if err != nil {
		return trendyol.Config{}, err
	}
	apiSecret, err := s.decrypt(user.TrendyolAPISecret)
	if err != nil {
		return trendyol.Config{}, err
	}
	if supplierID == "" || apiKey == "" || apiSecret == "" {
		return trendyol.Config{}, ErrIncompleteTrendyolCredentials
	}

	return trendyol.Config{
		SupplierID:         supplierID,
		APIKey:             apiKey,
		APISecret:          apiSecret,
		BaseURL:            s.cfg.Trendyol.BaseURL,
		IntegrationBaseURL: s.cfg.Trendyol.IntegrationBaseURL,
		Timeout:            time.Duration(s.cfg.Trendyol.TimeoutSeconds) * time.Second,
	}, nil
}

// SmartBillTenant 某用户的 SmartBill 接入配置与开票偏好
type SmartBillTenant struct {
	Config   smartbill.Config
	Series   string
	Gestiune string
}

// SmartBillTenant 解密某用户的 SmartBill 接入配置
// 凭据缺失返回 ErrIncompleteSmartBillCredentials，密文损坏返回 ErrCredentialsCorrupted
func (s *CredentialService) SmartBillTenant(userID uint) (*SmartBillTenant, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return s.smartBillTenantFor(user)
}

func (s *CredentialService) smartBillTenantFor(user *models.User) (*SmartBillTenant, error) {
	email, err := s.decrypt(user.SmartBillEmail)
	if err != nil {
		return nil, err
	}
	token, err := s.decrypt(user.SmartBillToken)
	if err != nil {
		return nil, err
	}
	cif, err := s.decrypt(user.SmartBillCIF)
	if err != nil {
		return nil, err
	}
	if email == "" || token == "" || cif == "" {
		return nil, ErrIncompleteSmartBillCredentials
	}

	return &SmartBillTenant{
		Config: smartbill.Config{
			Email:   email,
			Token:   token,
			CIF:     cif,
			BaseURL: s.cfg.SmartBill.BaseURL,
			Timeout: time.Duration(s.cfg.SmartBill.TimeoutSeconds) * time.Second,
		},
		Series:   user.SmartBillSeries,
		Gestiune: user.Gestiune,
	}, nil
}

func (s *CredentialService) decrypt(ciphertext string) (string, error) {
	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialsCorrupted, err)
	}
	return plaintext, nil
}

// CredentialProfile 凭据配置概览（敏感值脱敏返回）
type CredentialProfile struct {
	TrendyolConfigured  bool   `json:"trendyol_configured"`
	TrendyolSupplierID  string `json:"trendyol_supplier_id"`
	SmartBillConfigured bool   `json:"smartbill_configured"`
	SmartBillEmail      string `json:"smartbill_email"`
	SmartBillCIF        string `json:"smartbill_cif"`
	SmartBillSeries     string `json:"smartbill_series"`
	Gestiune            string `json:"gestiune"`
}

// Profile 返回某用户的凭据配置概览
func (s *CredentialService) Profile(userID uint) (*CredentialProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	profile := &CredentialProfile{
		SmartBillSeries: user.SmartBillSeries,
		Gestiune:        user.Gestiune,
	}

	if cfg, err := s.trendyolConfigFor(user); err == nil {
		profile.TrendyolConfigured = true
		profile.TrendyolSupplierID = maskValue(cfg.SupplierID)
	}
	if tenant, err := s.smartBillTenantFor(user); err == nil {
		profile.SmartBillConfigured = true
		profile.SmartBillEmail = maskValue(tenant.Config.Email)
		profile.SmartBillCIF = maskValue(tenant.Config.CIF)
	}
	return profile, nil
}

// maskValue 仅保留末 4 位
func maskValue(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 4) + value[len(value)-4:]
}
