package public

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facturis-next/internal/http/response"
	"github.com/facturis-next/internal/postal"
	"github.com/facturis-next/internal/service"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"

	"github.com/gin-gonic/gin"
)

func invokeInvoiceErrorResponder(t *testing.T, err error) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/invoices/generate", nil)

	respondInvoiceError(c, err)
	return decodeEnvelope(t, w)
}

func TestRespondInvoiceErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"order_not_found", service.ErrOrderNotFound, response.CodeNotFound},
		{"duplicate", fmt.Errorf("%w: order TY-1", service.ErrDuplicateInvoice), response.CodeConflict},
		{"no_series", service.ErrNoInvoiceSeries, response.CodeBadRequest},
		{"missing_trendyol_credentials", service.ErrIncompleteTrendyolCredentials, response.CodeBadRequest},
		{"corrupted_credentials", service.ErrCredentialsCorrupted, response.CodeInternal},
		{"trendyol_down", fmt.Errorf("%w: status 500", trendyol.ErrRequestFailed), response.CodeUpstream},
		{"smartbill_down", fmt.Errorf("%w: status 503", smartbill.ErrRequestFailed), response.CodeUpstream},
		{"smartbill_invoice_missing", smartbill.ErrInvoiceNotFound, response.CodeNotFound},
		{"postal_missing", postal.ErrNotFound, response.CodeNotFound},
		{"unknown", errors.New("boom"), response.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := invokeInvoiceErrorResponder(t, tc.err)
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("expected status code %d, got %d (msg %q)", tc.wantCode, resp.StatusCode, resp.Msg)
			}
		})
	}
}

func TestRespondOrderErrorFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

	respondOrderError(c, errors.New("socket closed"))

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != response.CodeInternal {
		t.Fatalf("expected status code %d, got %d", response.CodeInternal, resp.StatusCode)
	}
	if resp.Msg != "order query failed" {
		t.Fatalf("unexpected message %q", resp.Msg)
	}
}

func TestConcatMappedHandlerErrorsPreservesOrder(t *testing.T) {
	a := []mappedHandlerError{{target: service.ErrOrderNotFound, code: 1, msg: "a"}}
	b := []mappedHandlerError{{target: service.ErrNotFound, code: 2, msg: "b"}}

	merged := concatMappedHandlerErrors(a, b)
	if len(merged) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(merged))
	}
	if merged[0].msg != "a" || merged[1].msg != "b" {
		t.Fatalf("unexpected rule order: %+v", merged)
	}
}
