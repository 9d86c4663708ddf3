package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/crypto"
	"github.com/facturis-next/internal/models"
	"github.com/facturis-next/internal/repository"
	"github.com/facturis-next/internal/trendyol"
)

type bulkTestEnv struct {
	bulk        *BulkService
	invoices    *InvoiceService
	invoiceRepo repository.InvoiceRepository
	userID      uint
}

func bulkTestOrder(n int) trendyol.Order {
	return trendyol.Order{
		ID:                int64(900000 + n),
		OrderNumber:       fmt.Sprintf("TY-%d", n),
		Status:            "Delivered",
		OrderDate:         int64(1700000000000 + n),
		CustomerFirstName: "Ana",
		CustomerLastName:  "Pop",
		CurrencyCode:      "RON",
		TotalPrice:        100,
		InvoiceAddress:    trendyol.Address{Address1: "Str. Lunga 10", City: "Brasov", District: "Brasov"},
		Lines:             []trendyol.OrderLine{{ProductName: "Lampa", MerchantSKU: "LAMP-01", Quantity: 1, Price: 100, VATRate: 19}},
	}
}

// setupBulkTest 构造完整编排环境：内存库 + 假 Trendyol/SmartBill 服务
func setupBulkTest(t *testing.T, trendyolHandler, smartbillHandler http.HandlerFunc) *bulkTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:bulk_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.InvoiceRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	models.DB = db

	tyServer := httptest.NewServer(trendyolHandler)
	t.Cleanup(tyServer.Close)
	sbServer := httptest.NewServer(smartbillHandler)
	t.Cleanup(sbServer.Close)
	postalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(postalServer.Close)

	cfg := &config.Config{}
	cfg.Trendyol.BaseURL = tyServer.URL
	cfg.Trendyol.IntegrationBaseURL = tyServer.URL
	cfg.Trendyol.TimeoutSeconds = 5
	cfg.SmartBill.BaseURL = sbServer.URL
	cfg.SmartBill.TimeoutSeconds = 5
	cfg.Postal.BaseURL = postalServer.URL
	cfg.Postal.TimeoutSeconds = 2
	cfg.Storage.InvoiceDir = t.TempDir()
	cfg.Storage.RetentionDays = 30

	cipher, err := crypto.NewCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("failed to build cipher: %v", err)
	}
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	credentials := NewCredentialService(cfg, userRepo, cipher)

	user := &models.User{Username: "bulk_merchant", PasswordHash: "x", Role: "user", Status: 1}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := credentials.SetTrendyolCredentials(user.ID, TrendyolCredentialsInput{
		SupplierID: "100200", APIKey: "key", APISecret: "secret",
	}); err != nil {
		t.Fatalf("failed to set trendyol credentials: %v", err)
	}
	if err := credentials.SetSmartBillCredentials(user.ID, SmartBillCredentialsInput{
		Email: "billing@example.test", Token: "token", CIF: "RO123456", Series: "FACT",
	}); err != nil {
		t.Fatalf("failed to set smartbill credentials: %v", err)
	}

	storage := NewStorageService(cfg, invoiceRepo)
	invoices := NewInvoiceService(cfg, credentials, invoiceRepo, storage)
	bulk := NewBulkService(credentials, invoices, invoiceRepo)
	return &bulkTestEnv{bulk: bulk, invoices: invoices, invoiceRepo: invoiceRepo, userID: user.ID}
}

func writeOrderPage(w http.ResponseWriter, orders []trendyol.Order) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(trendyol.OrderPage{
		Content:       orders,
		Page:          0,
		Size:          len(orders),
		TotalElements: len(orders),
		TotalPages:    1,
	})
}

func TestGenerateBulkMiddleFailure(t *testing.T) {
	orders := []trendyol.Order{bulkTestOrder(1), bulkTestOrder(2), bulkTestOrder(3)}

	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/orders") {
			writeOrderPage(w, orders)
			return
		}
		http.NotFound(w, r)
	}
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invoice" {
			http.NotFound(w, r)
			return
		}
		var draft map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&draft)
		if draft["orderNumber"] == "TY-2" {
			http.Error(w, `{"errorText":"series blocked"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"series": "FACT", "number": fmt.Sprint(draft["orderNumber"])})
	}

	env := setupBulkTest(t, trendyolHandler, smartbillHandler)
	result, err := env.bulk.GenerateBulk(context.Background(), env.userID, BulkRequest{Statuses: "Delivered"})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}

	if result.Total != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("expected 3/2/1, got: %d/%d/%d", result.Total, result.Succeeded, result.Failed)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got: %d", len(result.Items))
	}
	if !result.Items[0].OK || result.Items[1].OK || !result.Items[2].OK {
		t.Fatalf("expected [ok, fail, ok], got: %+v", result.Items)
	}
	if result.Items[1].Error == "" {
		t.Fatal("failed item must carry a reason")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 summary error, got: %d", len(result.Errors))
	}

	// 失败订单不落记录
	for n, want := range map[int]bool{1: true, 2: false, 3: true} {
		record, err := env.invoiceRepo.GetByOrderID(env.userID, fmt.Sprintf("TY-%d", n))
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if (record != nil) != want {
			t.Fatalf("order TY-%d: expected record=%v, got: %v", n, want, record)
		}
	}
}

func TestGenerateBulkSkipsRecordedAndLinked(t *testing.T) {
	orders := []trendyol.Order{bulkTestOrder(1), bulkTestOrder(2), bulkTestOrder(3)}
	orders[2].InvoiceLink = "https://cdn.example.test/inv3.pdf"

	var invoiced []string
	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		writeOrderPage(w, orders)
	}
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		var draft map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&draft)
		invoiced = append(invoiced, fmt.Sprint(draft["orderNumber"]))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"series": "FACT", "number": "77"})
	}

	env := setupBulkTest(t, trendyolHandler, smartbillHandler)
	seed := &models.InvoiceRecord{UserID: env.userID, OrderID: "TY-1", InvoiceSeries: "FACT", InvoiceNumber: "1"}
	if err := env.invoiceRepo.Create(seed); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	result, err := env.bulk.GenerateBulk(context.Background(), env.userID, BulkRequest{Statuses: "Delivered"})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	if result.Total != 1 || result.Succeeded != 1 {
		t.Fatalf("expected single processed order, got: %+v", result)
	}
	if len(invoiced) != 1 || invoiced[0] != "TY-2" {
		t.Fatalf("expected only TY-2 invoiced, got: %v", invoiced)
	}
}

func TestGenerateBulkHonorsLimit(t *testing.T) {
	var orders []trendyol.Order
	for n := 1; n <= 15; n++ {
		orders = append(orders, bulkTestOrder(n))
	}

	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		writeOrderPage(w, orders)
	}
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		var draft map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&draft)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"series": "FACT", "number": fmt.Sprint(draft["orderNumber"])})
	}

	env := setupBulkTest(t, trendyolHandler, smartbillHandler)
	result, err := env.bulk.GenerateBulk(context.Background(), env.userID, BulkRequest{Statuses: "Delivered"})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	// 未指定 limit 时默认 10
	if result.Total != 10 {
		t.Fatalf("expected default cap of 10, got: %d", result.Total)
	}

	result, err = env.bulk.GenerateBulk(context.Background(), env.userID, BulkRequest{Statuses: "Delivered", Limit: 2, Force: true})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected cap of 2, got: %d", result.Total)
	}
}

func TestUploadBulk(t *testing.T) {
	orders := []trendyol.Order{bulkTestOrder(1), bulkTestOrder(2)}

	var uploads []string
	trendyolHandler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/orders"):
			writeOrderPage(w, orders)
		case strings.Contains(r.URL.Path, "/seller-invoice-file"):
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			uploads = append(uploads, r.FormValue("shipmentPackageId"))
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}
	smartbillHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoice/pdf" {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("%PDF-1.4 bulk"))
			return
		}
		http.NotFound(w, r)
	}

	env := setupBulkTest(t, trendyolHandler, smartbillHandler)
	// TY-1 已开票待回传，TY-2 无记录
	seed := &models.InvoiceRecord{
		UserID:        env.userID,
		OrderID:       "TY-1",
		PackageID:     900001,
		InvoiceSeries: "FACT",
		InvoiceNumber: "5",
		Status:        constants.InvoiceStatusGenerated,
	}
	if err := env.invoiceRepo.Create(seed); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	result, err := env.bulk.UploadBulk(context.Background(), env.userID, BulkRequest{Statuses: "Delivered"})
	if err != nil {
		t.Fatalf("bulk upload failed: %v", err)
	}
	if result.Total != 1 || result.Succeeded != 1 {
		t.Fatalf("expected single upload, got: %+v", result)
	}
	if len(uploads) != 1 || uploads[0] != "900001" {
		t.Fatalf("expected package 900001 uploaded, got: %v", uploads)
	}

	record, err := env.invoiceRepo.GetByOrderID(env.userID, "TY-1")
	if err != nil || record == nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if record.Status != constants.InvoiceStatusUploaded {
		t.Fatalf("expected uploaded status, got: %q", record.Status)
	}
	if record.PDFPath == "" || record.UploadedAt == nil {
		t.Fatal("expected pdf path and upload time recorded")
	}
}
