package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/facturis-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupInvoiceRepoTest(t *testing.T) (*GormInvoiceRepository, *GormUserRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:invoice_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.InvoiceRecord{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	return NewInvoiceRepository(db), NewUserRepository(db)
}

func seedRepoUser(t *testing.T, users *GormUserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x", Role: "user", Status: 1}
	if err := users.Create(user); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func TestInvoiceCreateDuplicateOrderRejected(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	user := seedRepoUser(t, users, "seller-1")

	first := &models.InvoiceRecord{UserID: user.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "1"}
	if err := invoices.Create(first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	dup := &models.InvoiceRecord{UserID: user.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "2"}
	err := invoices.Create(dup)
	if err == nil {
		t.Fatalf("expected unique index violation for duplicate order")
	}
	if !errors.Is(err, ErrDuplicateInvoice) {
		t.Fatalf("expected ErrDuplicateInvoice, got %v", err)
	}
}

func TestInvoiceSameOrderDifferentUsersAllowed(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	userA := seedRepoUser(t, users, "seller-a")
	userB := seedRepoUser(t, users, "seller-b")

	if err := invoices.Create(&models.InvoiceRecord{UserID: userA.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "1"}); err != nil {
		t.Fatalf("create for user A failed: %v", err)
	}
	if err := invoices.Create(&models.InvoiceRecord{UserID: userB.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "1"}); err != nil {
		t.Fatalf("create for user B failed: %v", err)
	}

	recordA, err := invoices.GetByOrderID(userA.ID, "ORD-1")
	if err != nil || recordA == nil {
		t.Fatalf("expected record for user A, got: %v %v", recordA, err)
	}
	recordB, err := invoices.GetByOrderID(userB.ID, "ORD-1")
	if err != nil || recordB == nil {
		t.Fatalf("expected record for user B, got: %v %v", recordB, err)
	}
	if recordA.ID == recordB.ID {
		t.Fatalf("expected distinct records per user")
	}
}

func TestInvoiceGetByOrderIDMissingReturnsNil(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	user := seedRepoUser(t, users, "seller-1")

	record, err := invoices.GetByOrderID(user.ID, "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got: %+v", record)
	}
}

func TestInvoiceListScopedToUser(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	userA := seedRepoUser(t, users, "seller-a")
	userB := seedRepoUser(t, users, "seller-b")

	for i := 0; i < 3; i++ {
		if err := invoices.Create(&models.InvoiceRecord{
			UserID: userA.ID, OrderID: fmt.Sprintf("A-%d", i), InvoiceSeries: "FCT", InvoiceNumber: fmt.Sprintf("%d", i),
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := invoices.Create(&models.InvoiceRecord{UserID: userB.ID, OrderID: "B-0", InvoiceSeries: "FCT", InvoiceNumber: "9"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	records, total, err := invoices.List(InvoiceListFilter{UserID: userA.ID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(records) != 3 {
		t.Fatalf("expected 3 records for user A, got total=%d len=%d", total, len(records))
	}

	all, allTotal, err := invoices.List(InvoiceListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if allTotal != 4 || len(all) != 4 {
		t.Fatalf("expected 4 records across users, got total=%d len=%d", allTotal, len(all))
	}
}

func TestInvoiceReplaceForOrder(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	user := seedRepoUser(t, users, "seller-1")

	if err := invoices.Create(&models.InvoiceRecord{UserID: user.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "1"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	replacement := &models.InvoiceRecord{UserID: user.ID, OrderID: "ORD-1", InvoiceSeries: "FCT", InvoiceNumber: "2"}
	if err := invoices.ReplaceForOrder(replacement); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	record, err := invoices.GetByOrderID(user.ID, "ORD-1")
	if err != nil || record == nil {
		t.Fatalf("expected record after replace, got: %v %v", record, err)
	}
	if record.InvoiceNumber != "2" {
		t.Fatalf("expected replaced number 2, got: %s", record.InvoiceNumber)
	}

	_, total, err := invoices.List(InvoiceListFilter{UserID: user.ID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected single record after replace, got: %d", total)
	}
}

func TestOrderIDsWithInvoice(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	user := seedRepoUser(t, users, "seller-1")

	for _, orderID := range []string{"ORD-1", "ORD-2"} {
		if err := invoices.Create(&models.InvoiceRecord{UserID: user.ID, OrderID: orderID, InvoiceSeries: "FCT", InvoiceNumber: orderID}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	set, err := invoices.OrderIDsWithInvoice(user.ID)
	if err != nil {
		t.Fatalf("order ids failed: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 order ids, got: %d", len(set))
	}
	if _, ok := set["ORD-1"]; !ok {
		t.Fatalf("expected ORD-1 in set")
	}
}
