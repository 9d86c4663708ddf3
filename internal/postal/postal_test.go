package postal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePage = `<html><body>
<table>
<tr><th>Cod</th><th>Strada</th><th>Localitate</th><th>Judet</th></tr>
<tr><td>010011</td><td>Str. Exemplu</td><td> Bucuresti </td><td> Sector 1 </td></tr>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 0)
}

func TestLookupParsesCityAndCounty(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(samplePage))
	}))

	addr, err := client.Lookup(context.Background(), "010011")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if gotPath != "/010011" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if addr.City != "Bucuresti" {
		t.Fatalf("unexpected city: %q", addr.City)
	}
	if addr.County != "Sector 1" {
		t.Fatalf("unexpected county: %q", addr.County)
	}
}

func TestLookupMissingTableIsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nimic aici</p></body></html>"))
	}))

	if _, err := client.Lookup(context.Background(), "999999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestLookupTooFewCellsIsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<table><tr><th>a</th></tr><tr><td>1</td><td>2</td></tr></table>"))
	}))

	if _, err := client.Lookup(context.Background(), "010011"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestLookupHTTPErrorIsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	if _, err := client.Lookup(context.Background(), "010011"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestLookupEmptyCodeIsNotFound(t *testing.T) {
	client := New("", 0)
	if _, err := client.Lookup(context.Background(), "  "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
