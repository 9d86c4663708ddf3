package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/repository"
)

// StorageService 发票 PDF 落盘与过期清理
type StorageService struct {
	cfg         *config.Config
	invoiceRepo repository.InvoiceRepository
}

// NewStorageService 创建存储服务
func NewStorageService(cfg *config.Config, invoiceRepo repository.InvoiceRepository) *StorageService {
	return &StorageService{cfg: cfg, invoiceRepo: invoiceRepo}
}

// SavePDF 写入发票 PDF，返回落盘路径
func (s *StorageService) SavePDF(userID uint, series, number string, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.Storage.InvoiceDir, fmt.Sprintf("user_%d", userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice dir: %w", err)
	}
	path := filepath.Join(dir, sanitizeFilename(series+number)+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice pdf: %w", err)
	}
	return path, nil
}

// Remove 删除落盘 PDF，文件不存在视为成功
func (s *StorageService) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SweepResult 清理结果
type SweepResult struct {
	Removed int `json:"removed"`
	Orphans int `json:"orphans"`
	Errors  int `json:"errors"`
}

// Sweep 清理过期发票 PDF
// 以开票记录创建时间为准，严格超过保留期的删除文件并清空 pdf_path；
// 无对应记录的孤儿文件按修改时间兜底判断
func (s *StorageService) Sweep(now time.Time) (*SweepResult, error) {
	cutoff := now.AddDate(0, 0, -s.cfg.Storage.RetentionDays)
	result := &SweepResult{}

	records, err := s.invoiceRepo.ListWithPDF()
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(records))
	for _, record := range records {
		tracked[record.PDFPath] = struct{}{}
		if !record.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Remove(record.PDFPath); err != nil {
			logger.Warnw("failed to remove expired invoice pdf", "path", record.PDFPath, "error", err)
			result.Errors++
			continue
		}
		if err := s.invoiceRepo.UpdateFields(record.ID, map[string]interface{}{"pdf_path": ""}); err != nil {
			logger.Warnw("failed to clear pdf path", "record_id", record.ID, "error", err)
			result.Errors++
			continue
		}
		result.Removed++
	}

	orphans, errs := s.sweepOrphans(cutoff, tracked)
	result.Orphans = orphans
	result.Errors += errs
	return result, nil
}

// sweepOrphans 扫描存储目录，删除无记录指向且修改时间过期的 PDF
func (s *StorageService) sweepOrphans(cutoff time.Time, tracked map[string]struct{}) (removed, errs int) {
	err := filepath.WalkDir(s.cfg.Storage.InvoiceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if _, ok := tracked[path]; ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			logger.Warnw("failed to remove orphan pdf", "path", path, "error", err)
			errs++
			return nil
		}
		removed++
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		logger.Warnw("failed to walk invoice dir", "dir", s.cfg.Storage.InvoiceDir, "error", err)
	}
	return removed, errs
}

// sanitizeFilename 过滤路径分隔等危险字符
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "")
	name = replacer.Replace(name)
	if name == "" {
		name = "invoice"
	}
	return name
}
