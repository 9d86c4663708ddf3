package trendyol

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		SupplierID:         "100200",
		APIKey:             "key",
		APISecret:          "secret",
		BaseURL:            server.URL,
		IntegrationBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client, server
}

func writeOrderPage(w http.ResponseWriter, page OrderPage) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func TestValidateConfigRejectsIncomplete(t *testing.T) {
	cases := []Config{
		{},
		{SupplierID: "1", APIKey: "k"},
		{APIKey: "k", APISecret: "s"},
	}
	for _, cfg := range cases {
		if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
			t.Fatalf("expected ErrConfigInvalid, got: %v", err)
		}
	}
	if err := ValidateConfig(Config{SupplierID: "1", APIKey: "k", APISecret: "s"}); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestFetchOrdersSingleStatusPassthrough(t *testing.T) {
	var gotPath, gotStatus, gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStatus = r.URL.Query().Get("status")
		gotAuth = r.Header.Get("Authorization")
		writeOrderPage(w, OrderPage{
			Content:       []Order{{ID: 1, OrderNumber: "A-1"}},
			TotalElements: 1,
			TotalPages:    1,
		})
	}))

	page, err := client.FetchOrders(context.Background(), OrderQuery{Status: "Created"})
	if err != nil {
		t.Fatalf("fetch orders failed: %v", err)
	}
	if gotPath != "/order/sellers/100200/orders" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotStatus != "Created" {
		t.Fatalf("unexpected status param: %s", gotStatus)
	}
	if gotAuth == "" {
		t.Fatalf("expected basic auth header")
	}
	if len(page.Content) != 1 || page.Content[0].OrderNumber != "A-1" {
		t.Fatalf("unexpected page content: %+v", page.Content)
	}
}

func TestFetchOrdersMultiStatusMergesDedupesAndSorts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("status") {
		case "Created":
			writeOrderPage(w, OrderPage{Content: []Order{
				{ID: 3, OrderNumber: "A-3", OrderDate: 3000},
				{ID: 1, OrderNumber: "A-1", OrderDate: 1000},
			}})
		case "Picking":
			writeOrderPage(w, OrderPage{Content: []Order{
				{ID: 1, OrderNumber: "A-1", OrderDate: 1000}, // 与 Created 状态重复
				{ID: 2, OrderNumber: "A-2", OrderDate: 2000},
			}})
		default:
			writeOrderPage(w, OrderPage{})
		}
	}))

	page, err := client.FetchOrders(context.Background(), OrderQuery{Status: "Created,Picking", Size: 10})
	if err != nil {
		t.Fatalf("fetch orders failed: %v", err)
	}
	if page.TotalElements != 3 {
		t.Fatalf("expected 3 unique orders, got: %d", page.TotalElements)
	}
	for i, want := range []string{"A-1", "A-2", "A-3"} {
		if page.Content[i].OrderNumber != want {
			t.Fatalf("expected order %s at index %d, got: %s", want, i, page.Content[i].OrderNumber)
		}
	}
}

func TestFetchOrdersSKUFilterAndRepagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOrderPage(w, OrderPage{Content: []Order{
			{ID: 1, OrderNumber: "A-1", OrderDate: 1000, Lines: []OrderLine{{MerchantSKU: "WIDGET-RED"}}},
			{ID: 2, OrderNumber: "A-2", OrderDate: 2000, Lines: []OrderLine{{Barcode: "629widget999"}}},
			{ID: 3, OrderNumber: "A-3", OrderDate: 3000, Lines: []OrderLine{{MerchantSKU: "OTHER"}}},
		}})
	}))

	page, err := client.FetchOrders(context.Background(), OrderQuery{SKU: "widget", Page: 0, Size: 1})
	if err != nil {
		t.Fatalf("fetch orders failed: %v", err)
	}
	if page.TotalElements != 2 {
		t.Fatalf("expected 2 matching orders, got: %d", page.TotalElements)
	}
	if page.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got: %d", page.TotalPages)
	}
	if len(page.Content) != 1 || page.Content[0].OrderNumber != "A-1" {
		t.Fatalf("unexpected first page: %+v", page.Content)
	}
}

func TestFetchOrdersFirstPageErrorPropagates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.FetchOrders(context.Background(), OrderQuery{Status: "Created,Picking"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got: %v", err)
	}
}

func TestDownloadCargoLabelEmptyBodyIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := client.DownloadCargoLabel(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestUploadInvoiceFileSendsMultipart(t *testing.T) {
	var gotPackageID, gotContentType string
	var gotFile []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotPackageID = r.FormValue("shipmentPackageId")
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		buf := make([]byte, 16)
		n, _ := file.Read(buf)
		gotFile = buf[:n]
		w.WriteHeader(http.StatusOK)
	}))

	err := client.UploadInvoiceFile(context.Background(), UploadInvoiceInput{
		PackageID: 42,
		Filename:  "invoice_42.pdf",
		PDF:       []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if gotPackageID != "42" {
		t.Fatalf("unexpected shipmentPackageId: %s", gotPackageID)
	}
	if gotContentType == "" {
		t.Fatalf("expected multipart content type")
	}
	if string(gotFile) != "%PDF-1.4" {
		t.Fatalf("unexpected file content: %s", gotFile)
	}
}

func TestFormatDateConvertsToEpochMillis(t *testing.T) {
	got := formatDate("2024-06-15")
	if got == "2024-06-15" || got == "" {
		t.Fatalf("expected epoch millis, got: %s", got)
	}
	if formatDate("") != "" {
		t.Fatalf("expected empty result for empty input")
	}
	if formatDate("not-a-date") != "not-a-date" {
		t.Fatalf("expected passthrough for unparseable input")
	}
}
