package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/42", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Product{ID: 42, Name: "Laptop", Category: "electronics", Price: 999.99})
	})
	mux.HandleFunc("/products/500", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/products/777", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})
	mux.HandleFunc("/products/600", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})
	mux.HandleFunc("/products/601", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("/products/900", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(domain.Product{ID: 900})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") != "electronics" {
			json.NewEncoder(w).Encode([]domain.Product{})
			return
		}
		json.NewEncoder(w).Encode([]domain.Product{{ID: 42, Category: "electronics"}, {ID: 43, Category: "electronics"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_GetProductByID(t *testing.T) {
	srv := newCatalogServer(t)
	c := NewHTTPClient(srv.URL+"/", time.Second, zap.NewNop())
	ctx := context.Background()

	p, err := c.GetProductByID(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Laptop" || p.Price != 999.99 {
		t.Errorf("unexpected product %+v", *p)
	}

	if _, err := c.GetProductByID(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}
	if _, err := c.GetProductByID(ctx, 500); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable for 500, got %v", err)
	}
	if _, err := c.GetProductByID(ctx, 777); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable for bad body, got %v", err)
	}
}

func TestHTTPClient_EmptyProductBodyIsUpstreamFailure(t *testing.T) {
	srv := newCatalogServer(t)
	c := NewHTTPClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	for _, id := range []int64{600, 601} {
		if p, err := c.GetProductByID(ctx, id); !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Errorf("product %d: expected ErrUpstreamUnavailable, got %+v, %v", id, p, err)
		}
		if ok, err := c.IsAvailable(ctx, id); ok || !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Errorf("product %d: empty body must not count as available, got %v, %v", id, ok, err)
		}
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := newCatalogServer(t)
	c := NewHTTPClient(srv.URL, 20*time.Millisecond, zap.NewNop())

	_, err := c.GetProductByID(context.Background(), 900)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable on timeout, got %v", err)
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := newCatalogServer(t)
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second, zap.NewNop())
	if _, err := c.IsAvailable(context.Background(), 42); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestHTTPClient_IsAvailable(t *testing.T) {
	srv := newCatalogServer(t)
	c := NewHTTPClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	if ok, err := c.IsAvailable(ctx, 42); err != nil || !ok {
		t.Errorf("expected available, got %v, %v", ok, err)
	}
	if ok, err := c.IsAvailable(ctx, 1); err != nil || ok {
		t.Errorf("expected clean false, got %v, %v", ok, err)
	}
	if _, err := c.IsAvailable(ctx, 500); err == nil {
		t.Error("expected error for upstream failure")
	}
}

func TestHTTPClient_GetProductsByCategory(t *testing.T) {
	srv := newCatalogServer(t)
	c := NewHTTPClient(srv.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	products, err := c.GetProductsByCategory(ctx, "electronics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}

	empty, err := c.GetProductsByCategory(ctx, "garden & patio")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %v, %v", empty, err)
	}
}
