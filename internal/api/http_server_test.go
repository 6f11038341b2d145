package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/application"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/infrastructure/memory"
)

type stubCatalog struct {
	products map[int64]domain.Product
	down     atomic.Bool
}

func (c *stubCatalog) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if c.down.Load() {
		return nil, errors.New("catalog down")
	}
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (c *stubCatalog) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if c.down.Load() {
		return nil, errors.New("catalog down")
	}
	var out []domain.Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *stubCatalog) IsAvailable(ctx context.Context, id int64) (bool, error) {
	if c.down.Load() {
		return false, errors.New("catalog down")
	}
	_, ok := c.products[id]
	return ok, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubCatalog) {
	t.Helper()
	catalog := &stubCatalog{products: map[int64]domain.Product{
		42: {ID: 42, Name: "Laptop", Category: "electronics"},
		43: {ID: 43, Name: "Phone", Category: "electronics"},
		44: {ID: 44, Name: "Chair", Category: "furniture"},
	}}
	outbox := application.NewOutboxWriter(memory.NewOutboxRepository())
	svc := application.NewInventoryService(memory.NewLedger(), catalog, outbox, zap.NewNop(), time.Second)
	srv := httptest.NewServer(NewServer(svc, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv, catalog
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestHealthAndSwagger(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	expectStatus(t, resp, http.StatusOK)
	if decode[healthResponse](t, resp).Status != "ok" {
		t.Error("expected ok status")
	}

	resp = do(t, http.MethodGet, srv.URL+"/swagger.json", "")
	expectStatus(t, resp, http.StatusOK)
	doc := decode[map[string]any](t, resp)
	if doc["openapi"] != "3.0.0" {
		t.Errorf("unexpected swagger document: %v", doc["openapi"])
	}
}

func TestCreateGetReserveFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/inventories"

	resp := do(t, http.MethodPost, base, `{"productId":42,"quantity":100}`)
	expectStatus(t, resp, http.StatusCreated)
	created := decode[inventoryResponse](t, resp)
	if resp.Header.Get("Location") == "" {
		t.Error("expected Location header")
	}

	resp = do(t, http.MethodGet, base+"/"+itoa(created.InventoryID), "")
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, http.MethodPatch, base+"/product/42/reserve/30", "")
	expectStatus(t, resp, http.StatusOK)
	if got := decode[inventoryResponse](t, resp); got.AvailableQuantity != 70 || got.ReservedQuantity != 30 {
		t.Errorf("unexpected after reserve: %+v", got)
	}

	resp = do(t, http.MethodPatch, base+"/product/42/reserve/71", "")
	expectStatus(t, resp, http.StatusBadRequest)
	body := decode[errorResponse](t, resp)
	if body.ErrorCode != "INSUFFICIENT_INVENTORY" {
		t.Errorf("unexpected error code %s", body.ErrorCode)
	}
	if body.Details["requested"] != float64(71) || body.Details["available"] != float64(70) {
		t.Errorf("unexpected details %v", body.Details)
	}

	resp = do(t, http.MethodPatch, base+"/product/42/quantity/150", "")
	expectStatus(t, resp, http.StatusOK)
	if got := decode[inventoryResponse](t, resp); got.AvailableQuantity != 120 {
		t.Errorf("expected available 120, got %d", got.AvailableQuantity)
	}

	resp = do(t, http.MethodGet, base+"/product/42", "")
	expectStatus(t, resp, http.StatusOK)
}

func TestCreate_ErrorMapping(t *testing.T) {
	srv, catalog := newTestServer(t)
	base := srv.URL + "/api/inventories"

	expectStatus(t, do(t, http.MethodPost, base, `{"productId":42,"quantity":1}`), http.StatusCreated)
	expectStatus(t, do(t, http.MethodPost, base, `{"productId":42,"quantity":1}`), http.StatusConflict)
	expectStatus(t, do(t, http.MethodPost, base, `{"productId":999,"quantity":1}`), http.StatusNotFound)
	expectStatus(t, do(t, http.MethodPost, base, `{"productId":43,"quantity":-1}`), http.StatusBadRequest)
	expectStatus(t, do(t, http.MethodPost, base, `{oops`), http.StatusBadRequest)

	catalog.down.Store(true)
	resp := do(t, http.MethodPost, base, `{"productId":43,"quantity":1}`)
	expectStatus(t, resp, http.StatusServiceUnavailable)
	if decode[errorResponse](t, resp).ErrorCode != "UPSTREAM_UNAVAILABLE" {
		t.Error("expected UPSTREAM_UNAVAILABLE")
	}
}

func TestListPagingHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/inventories"

	resp := do(t, http.MethodPost, base+"/bulk",
		`[{"productId":42,"quantity":10},{"productId":43,"quantity":20},{"productId":44,"quantity":30}]`)
	expectStatus(t, resp, http.StatusCreated)

	resp = do(t, http.MethodGet, base+"?page=0&size=2&minQuantity=15", "")
	expectStatus(t, resp, http.StatusOK)
	items := decode[[]inventoryResponse](t, resp)
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
	if resp.Header.Get("X-Total-Count") != "2" || resp.Header.Get("X-Page-Size") != "2" || resp.Header.Get("X-Page-Number") != "0" {
		t.Errorf("unexpected paging headers %v", resp.Header)
	}

	resp = do(t, http.MethodGet, base+"?page=5&size=20", "")
	expectStatus(t, resp, http.StatusOK)
	if items := decode[[]inventoryResponse](t, resp); len(items) != 0 {
		t.Errorf("expected empty page, got %d", len(items))
	}

	expectStatus(t, do(t, http.MethodGet, base+"?size=0", ""), http.StatusBadRequest)
	expectStatus(t, do(t, http.MethodGet, base+"?minQuantity=abc", ""), http.StatusBadRequest)
}

func TestUpdateAndDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/inventories"

	created := decode[inventoryResponse](t, do(t, http.MethodPost, base, `{"productId":42,"quantity":1}`))
	do(t, http.MethodPost, base, `{"productId":43,"quantity":1}`)
	path := base + "/" + itoa(created.InventoryID)

	resp := do(t, http.MethodPut, path, `{"productId":44,"quantity":5}`)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[inventoryResponse](t, resp); got.InventoryID != created.InventoryID || got.ProductID != 44 {
		t.Errorf("unexpected update result %+v", got)
	}

	expectStatus(t, do(t, http.MethodPut, path, `{"productId":43,"quantity":5}`), http.StatusConflict)
	expectStatus(t, do(t, http.MethodPut, base+"/999", `{"productId":42,"quantity":5}`), http.StatusNotFound)

	expectStatus(t, do(t, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, http.MethodDelete, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, http.MethodGet, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, http.MethodGet, base+"/not-a-number", ""), http.StatusBadRequest)
}

func TestCatalogBackedRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/inventories"

	created := decode[inventoryResponse](t, do(t, http.MethodPost, base, `{"productId":42,"quantity":3}`))

	resp := do(t, http.MethodGet, base+"/"+itoa(created.InventoryID)+"/details", "")
	expectStatus(t, resp, http.StatusOK)
	details := decode[inventoryDetailsResponse](t, resp)
	if details.Product.Name != "Laptop" || details.Inventory.Quantity != 3 {
		t.Errorf("unexpected details %+v", details)
	}

	resp = do(t, http.MethodGet, base+"/category/electronics", "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]inventoryDetailsResponse](t, resp); len(list) != 1 {
		t.Errorf("expected 1 inventory in category, got %d", len(list))
	}

	resp = do(t, http.MethodGet, base+"/product-info/44", "")
	expectStatus(t, resp, http.StatusOK)
	if p := decode[domain.Product](t, resp); p.Name != "Chair" {
		t.Errorf("unexpected product %+v", p)
	}
	expectStatus(t, do(t, http.MethodGet, base+"/product-info/1", ""), http.StatusNotFound)
}

func TestReserve_BadPathValues(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/inventories"

	expectStatus(t, do(t, http.MethodPatch, base+"/product/42/reserve/abc", ""), http.StatusBadRequest)
	expectStatus(t, do(t, http.MethodPatch, base+"/product/42/reserve/0", ""), http.StatusBadRequest)
	expectStatus(t, do(t, http.MethodPatch, base+"/product/42/quantity/-5", ""), http.StatusBadRequest)
}

func TestClassify_InternalErrorHidesMessage(t *testing.T) {
	status, body := classify(errors.New("pq: connection reset"))
	if status != http.StatusInternalServerError || strings.Contains(body.Message, "pq") {
		t.Errorf("internal errors must not leak, got %d %+v", status, body)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
