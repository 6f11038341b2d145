package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

// HTTPClient talks to the catalog's REST API:
//
//	GET {base}/products/{id}
//	GET {base}/products?category={category}
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otel.Tracer("catalog-client"),
		logger: logger,
	}
}

func (c *HTTPClient) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetProductByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("catalog.product_id", id))

	var product domain.Product
	if err := c.getJSON(ctx, "/products/"+strconv.FormatInt(id, 10), &product); err != nil {
		markSpan(span, err)
		return nil, err
	}
	if product.ID == 0 {
		err := fmt.Errorf("%w: catalog returned an empty product for %d", domain.ErrUpstreamUnavailable, id)
		c.logger.Warn("catalog returned empty product", zap.Int64("product_id", id))
		markSpan(span, err)
		return nil, err
	}
	return &product, nil
}

func (c *HTTPClient) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.GetProductsByCategory")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.category", category))

	var products []domain.Product
	path := "/products?category=" + url.QueryEscape(category)
	if err := c.getJSON(ctx, path, &products); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Product{}, nil
		}
		markSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.result_count", len(products)))
	return products, nil
}

// IsAvailable reports whether the catalog knows the product. A 404 is a
// clean false; anything else that fails is an error.
func (c *HTTPClient) IsAvailable(ctx context.Context, id int64) (bool, error) {
	_, err := c.GetProductByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build catalog request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: catalog %s", domain.ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		c.logger.Warn("catalog returned unexpected status",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: catalog %s returned %d", domain.ErrUpstreamUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode catalog %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	return nil
}

func markSpan(span trace.Span, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		span.SetAttributes(attribute.Bool("catalog.not_found", true))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
