package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

type errorResponse struct {
	ErrorCode string         `json:"errorCode"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// classify maps a service error to its status and error code.
func classify(err error) (int, errorResponse) {
	var insufficient *domain.InsufficientInventoryError
	switch {
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, errorResponse{
			ErrorCode: "INSUFFICIENT_INVENTORY",
			Message:   err.Error(),
			Details: map[string]any{
				"productId": insufficient.ProductID,
				"requested": insufficient.Requested,
				"available": insufficient.Available,
			},
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorResponse{ErrorCode: "CONFLICT", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_ARGUMENT", Message: err.Error()}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, errorResponse{ErrorCode: "UPSTREAM_UNAVAILABLE", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL_ERROR", Message: "internal error"}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}

	writeJSON(w, status, body)
}
