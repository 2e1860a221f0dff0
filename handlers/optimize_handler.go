package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/utils"
)

// maxRequestBytes caps the optimize request body
const maxRequestBytes = 8 << 20

// RouteOptimizer defines the operations the HTTP layer needs from the optimizer
type RouteOptimizer interface {
	// Optimize assigns deliveries to vehicles; only validation errors are returned
	Optimize(ctx context.Context, req *models.OptimizationRequest) (*models.OptimizationResult, error)

	// Status reports the configured LLM backend
	Status(ctx context.Context) models.ProviderStatus
}

// OptimizeHandler handles route optimization HTTP requests
type OptimizeHandler struct {
	service RouteOptimizer
	logger  *zap.Logger
}

// NewOptimizeHandler creates a new OptimizeHandler
func NewOptimizeHandler(service RouteOptimizer, logger *zap.Logger) *OptimizeHandler {
	return &OptimizeHandler{
		service: service,
		logger:  logger,
	}
}

// HandleOptimize handles POST /api/optimize-routes
func (h *OptimizeHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req models.OptimizationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", decodeErrorDetails(err))
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		h.logger.Warn("request body has trailing data",
			zap.String("request_id", requestID))
		_ = utils.WriteBadRequest(w, "Invalid request body", map[string]interface{}{
			"body": "must contain a single JSON object",
		})
		return
	}

	result, err := h.service.Optimize(ctx, &req)
	if err != nil {
		h.logger.Warn("route optimization rejected",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write optimization response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// decodeErrorDetails names the offending field when the body has a wrong JSON type
func decodeErrorDetails(err error) map[string]interface{} {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil
	}
	return map[string]interface{}{
		typeErr.Field: fmt.Sprintf("must be a %s, got %s", typeErr.Type, typeErr.Value),
	}
}

// HandleLLMStatus handles GET /api/llm-status
func (h *OptimizeHandler) HandleLLMStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	if err := utils.WriteOK(w, status); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
