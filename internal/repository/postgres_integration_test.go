//go:build integration
// +build integration

package repository

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/facturis-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.InvoiceRecord{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.InvoiceRecord{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresUserKeywordSearchCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	userRepo := NewUserRepository(db)
	for _, username := range []string{"SellerAlpha", "sellerbeta", "other"} {
		if err := userRepo.Create(&models.User{
			Username:     username,
			PasswordHash: "x",
		}); err != nil {
			t.Fatalf("create user %s failed: %v", username, err)
		}
	}

	users, total, err := userRepo.List(UserListFilter{Page: 1, PageSize: 10, Keyword: "seller"})
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("keyword search want 2 users, got total=%d len=%d", total, len(users))
	}
}

func TestPostgresInvoiceUniqueOrderPerUser(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	userRepo := NewUserRepository(db)
	user := &models.User{Username: "pg_seller", PasswordHash: "x"}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	invoiceRepo := NewInvoiceRepository(db)
	record := &models.InvoiceRecord{
		UserID:        user.ID,
		OrderID:       "TY-9001",
		InvoiceSeries: "FACT",
		InvoiceNumber: "0001",
		Status:        "generated",
		Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(120.50)),
		Currency:      "RON",
	}
	if err := invoiceRepo.Create(record); err != nil {
		t.Fatalf("create invoice record failed: %v", err)
	}

	duplicate := &models.InvoiceRecord{
		UserID:        user.ID,
		OrderID:       "TY-9001",
		InvoiceSeries: "FACT",
		InvoiceNumber: "0002",
		Status:        "generated",
		Currency:      "RON",
	}
	if err := invoiceRepo.Create(duplicate); !errors.Is(err, ErrDuplicateInvoice) {
		t.Fatalf("duplicate (user_id, order_id) should surface ErrDuplicateInvoice, got %v", err)
	}

	replacement := &models.InvoiceRecord{
		UserID:        user.ID,
		OrderID:       "TY-9001",
		InvoiceSeries: "FACT",
		InvoiceNumber: "0003",
		Status:        "generated",
		Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(99.00)),
		Currency:      "RON",
	}
	if err := invoiceRepo.ReplaceForOrder(replacement); err != nil {
		t.Fatalf("replace for order failed: %v", err)
	}

	got, err := invoiceRepo.GetByOrderID(user.ID, "TY-9001")
	if err != nil {
		t.Fatalf("get by order id failed: %v", err)
	}
	if got == nil || got.InvoiceNumber != "0003" {
		t.Fatalf("expected replaced record 0003, got: %+v", got)
	}
}
