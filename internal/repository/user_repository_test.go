package repository

import (
	"testing"

	"github.com/facturis-next/internal/models"
)

func TestUserDeleteCascadesInvoiceRecords(t *testing.T) {
	invoices, users := setupInvoiceRepoTest(t)
	tenantA := seedRepoUser(t, users, "tenant-a")
	tenantB := seedRepoUser(t, users, "tenant-b")

	for _, userID := range []uint{tenantA.ID, tenantB.ID} {
		record := &models.InvoiceRecord{UserID: userID, OrderID: "ORD-X", InvoiceSeries: "FCT", InvoiceNumber: "1"}
		if err := invoices.Create(record); err != nil {
			t.Fatalf("seed record for user %d failed: %v", userID, err)
		}
	}

	if err := users.Delete(tenantA.ID); err != nil {
		t.Fatalf("delete tenant failed: %v", err)
	}

	var remaining int64
	if err := models.DB.Model(&models.InvoiceRecord{}).Where("user_id = ?", tenantA.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count records failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no records for deleted tenant, found %d", remaining)
	}

	survivor, err := invoices.GetByOrderID(tenantB.ID, "ORD-X")
	if err != nil {
		t.Fatalf("fetch surviving record failed: %v", err)
	}
	if survivor == nil {
		t.Fatal("expected tenant B record to survive tenant A deletion")
	}

	got, err := users.GetByID(tenantA.ID)
	if err != nil {
		t.Fatalf("fetch deleted user failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected deleted user to be gone, got %+v", got)
	}
}

func TestUserDeleteFreesUsername(t *testing.T) {
	_, users := setupInvoiceRepoTest(t)
	user := seedRepoUser(t, users, "reuse-me")

	if err := users.Delete(user.ID); err != nil {
		t.Fatalf("delete user failed: %v", err)
	}

	// 硬删除后同名账号可重新注册
	again := &models.User{Username: "reuse-me", PasswordHash: "y", Role: "user", Status: 1}
	if err := users.Create(again); err != nil {
		t.Fatalf("recreate username after delete failed: %v", err)
	}
}
