package amazon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/shopspring/decimal"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

func newTestClient(baseURL string) *Client {
	return NewClient(&cfg.CatalogCfg{
		BaseURL:    baseURL,
		PartnerTag: "gibipromo-20",
		Timeout:    2 * time.Second,
	}, nopLogger{})
}

func TestLookupOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/B08N5WRWNW" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("partnerTag"); got != "gibipromo-20" {
			t.Errorf("unexpected partnerTag: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"asin": "B08N5WRWNW",
			"offer_id": "offer-7",
			"title": "Watchmen Edicao Definitiva",
			"full_price": "99.90",
			"price": "79.90",
			"in_stock": true,
			"url": "https://www.amazon.com.br/dp/B08N5WRWNW",
			"image": "https://images.example/B08N5WRWNW.jpg",
			"publisher": "Panini"
		}`))
	}))
	defer srv.Close()

	snapshot, err := newTestClient(srv.URL).Lookup(context.Background(), "B08N5WRWNW")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}

	if snapshot.ID != "B08N5WRWNW" {
		t.Fatalf("unexpected id: %s", snapshot.ID)
	}
	if !snapshot.Price.Equal(decimal.RequireFromString("79.90")) {
		t.Fatalf("unexpected price: %s", snapshot.Price)
	}
	if !snapshot.InStock {
		t.Fatalf("expected in_stock true")
	}
	if snapshot.Publisher != "Panini" {
		t.Fatalf("unexpected publisher: %s", snapshot.Publisher)
	}
}

func TestLookupFillsMissingASIN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Sem ASIN", "price": "10.00", "full_price": "10.00"}`))
	}))
	defer srv.Close()

	snapshot, err := newTestClient(srv.URL).Lookup(context.Background(), "B000FI73MA")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if snapshot.ID != "B000FI73MA" {
		t.Fatalf("expected requested asin as id, got %s", snapshot.ID)
	}
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "B000000000")
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "B08N5WRWNW")
	if !errors.Is(err, e.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestLookupNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // соединение будет отвергнуто

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "B08N5WRWNW")
	if !errors.Is(err, e.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestResolveCanonicalLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/B08N5WRWNW" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"asin": "B08N5WRWNW", "price": "59.90", "full_price": "59.90", "in_stock": true}`))
	}))
	defer srv.Close()

	snapshot, err := newTestClient(srv.URL).Resolve(context.Background(), "https://www.amazon.com.br/dp/B08N5WRWNW?tag=x")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if snapshot.ID != "B08N5WRWNW" {
		t.Fatalf("unexpected id: %s", snapshot.ID)
	}
}

func TestResolveInvalidLink(t *testing.T) {
	_, err := newTestClient("http://unused").Resolve(context.Background(), "https://www.example.com/dp/B08N5WRWNW")
	if !errors.Is(err, e.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}
