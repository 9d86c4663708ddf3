package service

import (
	"errors"

	"github.com/facturis-next/internal/repository"
)

// 通用错误
var (
	ErrNotFound = errors.New("record not found")
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("account disabled")
	ErrUsernameExists     = errors.New("username already taken")
	ErrRegistrationClosed = errors.New("registration is disabled")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidPassword    = errors.New("current password incorrect")
)

// 凭据相关错误
var (
	ErrIncompleteTrendyolCredentials  = errors.New("trendyol credentials not configured")
	ErrIncompleteSmartBillCredentials = errors.New("smartbill credentials not configured")
	ErrCredentialsCorrupted           = errors.New("stored credentials cannot be decrypted")
)

// 开票相关错误
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateInvoice 由仓库层在唯一索引冲突时返回，这里复用同一哨兵
	ErrDuplicateInvoice = repository.ErrDuplicateInvoice
	ErrInvoiceNotFound  = errors.New("invoice record not found")
	ErrNoInvoiceSeries  = errors.New("no invoice series available")
)

// 验证码相关错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha configuration invalid")
)
