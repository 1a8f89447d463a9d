package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veritel/internal/verify"
	"veritel/pkg/platform/httputil"
	"veritel/pkg/requestcontext"
)

// Service defines the engine operations this handler exposes.
type Service interface {
	VerifyOrganization(ctx context.Context, taxID string) (*verify.OrganizationResult, error)
	VerifyPhoneOrPerson(ctx context.Context, rawInput string) (*verify.PhonePersonResult, error)
}

// Handler wires verification endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/organization", h.HandleVerifyOrganization)
	r.Post("/verify/query", h.HandleVerifyQuery)
}

// HandleVerifyOrganization handles POST /verify/organization. The lookup
// may refresh the cached record, so this POST is honest about its side
// effect.
func (h *Handler) HandleVerifyOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyOrganizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.VerifyOrganization(ctx, req.TaxID)
	if err != nil {
		h.logger.ErrorContext(ctx, "organization verification failed",
			"request_id", requestID,
			"tax_id", req.TaxID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization verification served",
		"request_id", requestID,
		"tax_id", req.TaxID,
		"known", result.Known,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOrganizationResult(result))
}

// HandleVerifyQuery handles POST /verify/query for phone numbers and
// person names.
func (h *Handler) HandleVerifyQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyQueryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.VerifyPhoneOrPerson(ctx, req.Query)
	if err != nil {
		h.logger.ErrorContext(ctx, "query verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "query verification served",
		"request_id", requestID,
		"kind", result.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromQueryResult(result))
}
