package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（每个用户对应一个 Trendyol 卖家 + SmartBill 公司）
type User struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                 // 主键
	Username           string     `gorm:"uniqueIndex;not null" json:"username"` // 登录名
	PasswordHash       string     `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	Role               string     `gorm:"default:'user'" json:"role"`           // 角色（admin/user）
	Status             int        `gorm:"default:1" json:"status"`              // 账号状态（1 启用 0 禁用）
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`          // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time `gorm:"index" json:"-"`                       // 该时间点前签发的 Token 失效

	// Trendyol 凭据（AES-GCM 密文存储）
	TrendyolSupplierID string `gorm:"default:''" json:"-"` // 卖家编号密文
	TrendyolAPIKey     string `gorm:"default:''" json:"-"` // API Key 密文
	TrendyolAPISecret  string `gorm:"default:''" json:"-"` // API Secret 密文

	// SmartBill 凭据（AES-GCM 密文存储）
	SmartBillEmail string `gorm:"default:''" json:"-"` // 账号邮箱密文
	SmartBillToken string `gorm:"default:''" json:"-"` // API Token 密文
	SmartBillCIF   string `gorm:"default:''" json:"-"` // 公司 CIF 密文

	// SmartBill 开票偏好（明文）
	SmartBillSeries string `gorm:"default:''" json:"smartbill_series"` // 发票系列
	Gestiune        string `gorm:"default:''" json:"gestiune"`         // 仓库/库存管理名

	LastLoginAt *time.Time     `json:"last_login_at"`           // 最后登录时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"` // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
