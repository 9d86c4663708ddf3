package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/models"
)

func TestUploadInvoiceMarksRecordFailedOnPDFError(t *testing.T) {
	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoice/pdf" {
			http.Error(w, `{"errorText":"pdf backend down"}`, http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}

	env := setupBulkTest(t, trendyolHandler, smartbillHandler)
	seed := &models.InvoiceRecord{
		UserID: env.userID, OrderID: "TY-500", PackageID: 900500,
		InvoiceSeries: "FACT", InvoiceNumber: "500",
		Status: constants.InvoiceStatusGenerated,
	}
	if err := env.invoiceRepo.Create(seed); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if _, err := env.invoices.UploadInvoice(context.Background(), env.userID, "TY-500"); err == nil {
		t.Fatal("expected upload to fail")
	}

	record, err := env.invoiceRepo.GetByOrderID(env.userID, "TY-500")
	if err != nil {
		t.Fatalf("reload record failed: %v", err)
	}
	if record == nil {
		t.Fatal("record disappeared after failed upload")
	}
	if record.Status != constants.InvoiceStatusFailed {
		t.Fatalf("expected status %q, got %q", constants.InvoiceStatusFailed, record.Status)
	}
	if record.UploadedAt != nil {
		t.Fatalf("failed upload must not set uploaded_at, got %v", record.UploadedAt)
	}
}

func TestReverseInvoiceMarksRecordFailedOnUpstreamError(t *testing.T) {
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoice/reverse" {
			http.Error(w, `{"errorText":"storno rejected"}`, http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}

	env := setupBulkTest(t, http.NotFound, smartbillHandler)
	seed := &models.InvoiceRecord{
		UserID: env.userID, OrderID: "TY-501", PackageID: 900501,
		InvoiceSeries: "FACT", InvoiceNumber: "501",
		Status: constants.InvoiceStatusGenerated,
	}
	if err := env.invoiceRepo.Create(seed); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if _, err := env.invoices.ReverseInvoice(context.Background(), env.userID, "TY-501"); err == nil {
		t.Fatal("expected reverse to fail")
	}

	record, err := env.invoiceRepo.GetByOrderID(env.userID, "TY-501")
	if err != nil {
		t.Fatalf("reload record failed: %v", err)
	}
	if record.Status != constants.InvoiceStatusFailed {
		t.Fatalf("expected status %q, got %q", constants.InvoiceStatusFailed, record.Status)
	}
}

func TestSendInvoiceLinkMarksRecordUploaded(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "seller-invoice-links") {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotPayload)
			_ = json.NewEncoder(w).Encode(map[string]string{})
			return
		}
		http.NotFound(w, r)
	}

	env := setupBulkTest(t, trendyolHandler, http.NotFound)
	seed := &models.InvoiceRecord{
		UserID: env.userID, OrderID: "TY-502", PackageID: 900502,
		InvoiceSeries: "FACT", InvoiceNumber: "502",
		Status: constants.InvoiceStatusGenerated,
	}
	if err := env.invoiceRepo.Create(seed); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	record, err := env.invoices.SendInvoiceLink(context.Background(), env.userID, "TY-502", "https://cdn.example.test/FACT502.pdf")
	if err != nil {
		t.Fatalf("send invoice link failed: %v", err)
	}

	if gotPath == "" {
		t.Fatal("expected a call to the seller-invoice-links endpoint")
	}
	if gotPayload["invoiceLink"] != "https://cdn.example.test/FACT502.pdf" {
		t.Fatalf("unexpected invoiceLink payload: %v", gotPayload["invoiceLink"])
	}
	if gotPayload["invoiceNumber"] != "FACT502" {
		t.Fatalf("unexpected invoiceNumber payload: %v", gotPayload["invoiceNumber"])
	}

	if record.Status != constants.InvoiceStatusUploaded {
		t.Fatalf("expected status %q, got %q", constants.InvoiceStatusUploaded, record.Status)
	}
	if record.UploadedAt == nil {
		t.Fatal("expected uploaded_at to be set")
	}

	stored, err := env.invoiceRepo.GetByOrderID(env.userID, "TY-502")
	if err != nil {
		t.Fatalf("reload record failed: %v", err)
	}
	if stored.Status != constants.InvoiceStatusUploaded {
		t.Fatalf("persisted status mismatch: %q", stored.Status)
	}
}

func TestSendInvoiceLinkWithoutRecord(t *testing.T) {
	env := setupBulkTest(t, http.NotFound, http.NotFound)

	_, err := env.invoices.SendInvoiceLink(context.Background(), env.userID, "TY-503", "https://cdn.example.test/x.pdf")
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
