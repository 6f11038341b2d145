package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/application"
	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

const (
	defaultPageSize = 20
	maxBodyBytes    = 1 << 20
)

// Server is the HTTP adapter over InventoryService.
type Server struct {
	service *application.InventoryService
	logger  *zap.Logger
}

func NewServer(service *application.InventoryService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{service: service, logger: logger}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/swagger.json", s.handleSwaggerJson)

	r.Route("/api/inventories", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Post("/bulk", s.handleCreateBulk)

		r.Get("/product/{productId}", s.handleGetByProduct)
		r.Patch("/product/{productId}/quantity/{quantity}", s.handleSetQuantity)
		r.Patch("/product/{productId}/reserve/{quantity}", s.handleReserve)
		r.Get("/category/{category}", s.handleListByCategory)
		r.Get("/product-info/{productId}", s.handleProductInfo)

		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/details", s.handleGetDetails)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	return otelhttp.NewHandler(r, "inventory-http")
}

type healthResponse struct {
	Status string `json:"status"`
}

type inventoryRequest struct {
	InventoryID      int64 `json:"inventoryId"`
	ProductID        int64 `json:"productId"`
	Quantity         int   `json:"quantity"`
	ReservedQuantity int   `json:"reservedQuantity"`
}

func (r inventoryRequest) toDomain() domain.Inventory {
	return domain.Inventory{
		InventoryID:      r.InventoryID,
		ProductID:        r.ProductID,
		Quantity:         r.Quantity,
		ReservedQuantity: r.ReservedQuantity,
	}
}

type inventoryResponse struct {
	InventoryID       int64 `json:"inventoryId"`
	ProductID         int64 `json:"productId"`
	Quantity          int   `json:"quantity"`
	ReservedQuantity  int   `json:"reservedQuantity"`
	AvailableQuantity int   `json:"availableQuantity"`
}

func toResponse(inv domain.Inventory) inventoryResponse {
	return inventoryResponse{
		InventoryID:       inv.InventoryID,
		ProductID:         inv.ProductID,
		Quantity:          inv.Quantity,
		ReservedQuantity:  inv.ReservedQuantity,
		AvailableQuantity: inv.AvailableQuantity(),
	}
}

func toResponses(invs []*domain.Inventory) []inventoryResponse {
	out := make([]inventoryResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toResponse(*inv))
	}
	return out
}

type inventoryDetailsResponse struct {
	Inventory inventoryResponse `json:"inventory"`
	Product   domain.Product    `json:"product"`
}

func toDetails(j domain.InventoryWithProduct) inventoryDetailsResponse {
	return inventoryDetailsResponse{Inventory: toResponse(j.Inventory), Product: j.Product}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// GET /api/inventories?page=&size=&minQuantity=&maxQuantity=
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 0)
	if err != nil {
		s.writeError(w, r, invalid("page", err))
		return
	}
	size, err := queryInt(q.Get("size"), defaultPageSize)
	if err != nil {
		s.writeError(w, r, invalid("size", err))
		return
	}
	filter, err := quantityFilter(q.Get("minQuantity"), q.Get("maxQuantity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.service.ListPaged(r.Context(), page, size, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.service.Count(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	w.Header().Set("X-Page-Number", strconv.Itoa(page))
	w.Header().Set("X-Page-Size", strconv.Itoa(size))
	writeJSON(w, http.StatusOK, toResponses(items))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*inv))
}

func (s *Server) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	joined, err := s.service.GetWithProductInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetails(*joined))
}

func (s *Server) handleGetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.GetByProductID(r.Context(), productID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*inv))
}

func (s *Server) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	joined, err := s.service.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]inventoryDetailsResponse, 0, len(joined))
	for _, j := range joined {
		out = append(out, toDetails(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProductInfo(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.service.ProductInfo(r.Context(), productID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.CreateInventory(r.Context(), req.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/inventories/%d", inv.InventoryID))
	writeJSON(w, http.StatusCreated, toResponse(*inv))
}

func (s *Server) handleCreateBulk(w http.ResponseWriter, r *http.Request) {
	var req []inventoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	candidates := make([]domain.Inventory, 0, len(req))
	for _, item := range req {
		candidates = append(candidates, item.toDomain())
	}
	created, err := s.service.CreateBulk(r.Context(), candidates)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponses(created))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req inventoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.UpdateInventory(r.Context(), id, req.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*inv))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.DeleteInventory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, qty, err := productAndQuantity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.SetQuantity(r.Context(), productID, qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*inv))
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	productID, qty, err := productAndQuantity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.service.Reserve(r.Context(), productID, qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*inv))
}

func (s *Server) handleSwaggerJson(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPISpec))
}

func productAndQuantity(r *http.Request) (int64, int, error) {
	productID, err := pathInt64(r, "productId")
	if err != nil {
		return 0, 0, err
	}
	qty, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		return 0, 0, invalid("quantity", err)
	}
	return productID, qty, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, invalid(name, err)
	}
	return v, nil
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func quantityFilter(minRaw, maxRaw string) (domain.QuantityFilter, error) {
	var f domain.QuantityFilter
	if minRaw != "" {
		v, err := strconv.Atoi(minRaw)
		if err != nil {
			return f, invalid("minQuantity", err)
		}
		f.Min = &v
	}
	if maxRaw != "" {
		v, err := strconv.Atoi(maxRaw)
		if err != nil {
			return f, invalid("maxQuantity", err)
		}
		f.Max = &v
	}
	return f, nil
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrInvalidArgument, field, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
