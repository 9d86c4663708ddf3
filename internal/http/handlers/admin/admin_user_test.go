package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		raw    string
		wantID uint
		wantOK bool
	}{
		{"valid", "42", 42, true},
		{"zero", "0", 0, false},
		{"negative", "-3", 0, false},
		{"not_numeric", "abc", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/"+tc.raw, nil)
			c.Params = gin.Params{{Key: "id", Value: tc.raw}}

			id, ok := parseIDParam(c)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if id != tc.wantID {
				t.Fatalf("expected id=%d, got %d", tc.wantID, id)
			}
		})
	}
}

func TestParseTimeNullable(t *testing.T) {
	if got, err := parseTimeNullable(""); err != nil || got != nil {
		t.Fatalf("expected nil,nil for empty input, got %v, %v", got, err)
	}

	got, err := parseTimeNullable("2026-01-15")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if got.Year() != 2026 || got.Month() != time.January || got.Day() != 15 {
		t.Fatalf("unexpected time %v", got)
	}

	got, err = parseTimeNullable("2026-01-15T10:30:00Z")
	if err != nil {
		t.Fatalf("parse RFC3339: %v", err)
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Fatalf("unexpected time %v", got)
	}

	if _, err := parseTimeNullable("15/01/2026"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}
