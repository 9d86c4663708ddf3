package models

import (
	"time"
)

// InvoiceRecord 订单开票记录（每用户每订单唯一）
type InvoiceRecord struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                          // 主键
	UserID        uint       `gorm:"not null;uniqueIndex:idx_invoice_user_order" json:"user_id"`    // 所属用户
	OrderID       string     `gorm:"not null;uniqueIndex:idx_invoice_user_order" json:"order_id"`   // Trendyol 订单号
	PackageID     int64      `gorm:"default:0" json:"package_id"`                                   // Trendyol 包裹编号
	CustomerName  string     `gorm:"default:''" json:"customer_name"`                               // 买家姓名快照
	InvoiceSeries string     `gorm:"not null" json:"invoice_series"`                                // SmartBill 发票系列
	InvoiceNumber string     `gorm:"not null" json:"invoice_number"`                                // SmartBill 发票号
	Status        string     `gorm:"default:'generated';index" json:"status"`                       // 状态（generated/uploaded/failed/reversed）
	Amount        Money      `gorm:"type:decimal(12,2);default:0" json:"amount"`                    // 发票金额
	Currency      string     `gorm:"default:'RON'" json:"currency"`                                 // 币种
	PDFPath       string     `gorm:"default:''" json:"pdf_path"`                                    // 本地 PDF 路径（清理后置空）
	UploadedAt    *time.Time `json:"uploaded_at"`                                                   // 上传 Trendyol 时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                                    // 更新时间

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (InvoiceRecord) TableName() string {
	return "invoice_records"
}
