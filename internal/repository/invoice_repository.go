package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/facturis-next/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateInvoice 同一用户同一订单已存在开票记录
var ErrDuplicateInvoice = errors.New("invoice already exists for this order")

// isDuplicateKeyError 识别各方言的唯一约束冲突
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// InvoiceRepository 开票记录数据访问接口
type InvoiceRepository interface {
	Create(record *models.InvoiceRecord) error
	Update(record *models.InvoiceRecord) error
	UpdateFields(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	GetByID(id uint) (*models.InvoiceRecord, error)
	GetByOrderID(userID uint, orderID string) (*models.InvoiceRecord, error)
	GetByPDFPath(path string) (*models.InvoiceRecord, error)
	List(filter InvoiceListFilter) ([]models.InvoiceRecord, int64, error)
	OrderIDsWithInvoice(userID uint) (map[string]struct{}, error)
	ListWithPDF() ([]models.InvoiceRecord, error)
	ReplaceForOrder(record *models.InvoiceRecord) error
}

// GormInvoiceRepository GORM 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建开票记录仓库
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create 创建开票记录（同一用户同一订单唯一，冲突由唯一索引保证）
func (r *GormInvoiceRepository) Create(record *models.InvoiceRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: order %s", ErrDuplicateInvoice, record.OrderID)
		}
		return err
	}
	return nil
}

// Update 更新开票记录
func (r *GormInvoiceRepository) Update(record *models.InvoiceRecord) error {
	return r.db.Save(record).Error
}

// UpdateFields 按字段更新开票记录
func (r *GormInvoiceRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.InvoiceRecord{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除开票记录
func (r *GormInvoiceRepository) Delete(id uint) error {
	return r.db.Delete(&models.InvoiceRecord{}, id).Error
}

// GetByID 根据 ID 获取开票记录
func (r *GormInvoiceRepository) GetByID(id uint) (*models.InvoiceRecord, error) {
	var record models.InvoiceRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderID 获取某用户某订单的开票记录
func (r *GormInvoiceRepository) GetByOrderID(userID uint, orderID string) (*models.InvoiceRecord, error) {
	var record models.InvoiceRecord
	err := r.db.Where("user_id = ? AND order_id = ?", userID, orderID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByPDFPath 根据本地 PDF 路径获取开票记录
func (r *GormInvoiceRepository) GetByPDFPath(path string) (*models.InvoiceRecord, error) {
	if path == "" {
		return nil, nil
	}
	var record models.InvoiceRecord
	err := r.db.Where("pdf_path = ?", path).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 开票记录列表（filter.UserID 为 0 时跨用户查询，供管理端使用）
func (r *GormInvoiceRepository) List(filter InvoiceListFilter) ([]models.InvoiceRecord, int64, error) {
	query := r.db.Model(&models.InvoiceRecord{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != "" {
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"order_id"})
		query = query.Where(condition, repeatLikeArgs("%"+filter.OrderID+"%", argCount)...)
	}
	if filter.Series != "" {
		query = query.Where("invoice_series = ?", filter.Series)
	}
	if filter.Number != "" {
		query = query.Where("invoice_number = ?", filter.Number)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var records []models.InvoiceRecord
	if err := query.Order("id DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// OrderIDsWithInvoice 某用户已开票的订单号集合（批量处理时跳过）
func (r *GormInvoiceRepository) OrderIDsWithInvoice(userID uint) (map[string]struct{}, error) {
	var orderIDs []string
	err := r.db.Model(&models.InvoiceRecord{}).
		Where("user_id = ?", userID).
		Pluck("order_id", &orderIDs).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		set[id] = struct{}{}
	}
	return set, nil
}

// ListWithPDF 所有仍持有本地 PDF 的记录（供存储清理）
func (r *GormInvoiceRepository) ListWithPDF() ([]models.InvoiceRecord, error) {
	var records []models.InvoiceRecord
	if err := r.db.Where("pdf_path <> ''").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceForOrder 覆盖某用户某订单的开票记录（删旧插新在同一事务内）
func (r *GormInvoiceRepository) ReplaceForOrder(record *models.InvoiceRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND order_id = ?", record.UserID, record.OrderID).
			Delete(&models.InvoiceRecord{}).Error
		if err != nil {
			return err
		}
		if err := tx.Create(record).Error; err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: order %s", ErrDuplicateInvoice, record.OrderID)
			}
			return err
		}
		return nil
	})
}
