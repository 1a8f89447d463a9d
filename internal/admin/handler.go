package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"veritel/internal/domain"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/platform/httputil"
	"veritel/pkg/requestcontext"
)

// Handler exposes the moderation endpoints. Mount it on a router group
// wrapped in the auth middleware.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Patch("/admin/organizations/{taxID}/score", h.HandleSetOrganizationScore)
	r.Patch("/admin/phones/score", h.HandleSetPhoneScore)
	r.Post("/admin/phones/link", h.HandleLinkPhone)
}

// ScoreRequest is the body of score override endpoints.
type ScoreRequest struct {
	Score int    `json:"score"`
	Risk  string `json:"risk"`
}

func (r ScoreRequest) Validate() error {
	if strings.TrimSpace(r.Risk) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "risk is required")
	}
	return nil
}

// PhoneScoreRequest overrides a phone's score; the number travels in the
// body because E.164 canonical forms contain a leading plus.
type PhoneScoreRequest struct {
	Number string `json:"number"`
	Score  int    `json:"score"`
	Risk   string `json:"risk"`
}

func (r PhoneScoreRequest) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "number is required")
	}
	if strings.TrimSpace(r.Risk) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "risk is required")
	}
	return nil
}

// LinkRequest attaches a phone number to an organization.
type LinkRequest struct {
	Number string `json:"number"`
	TaxID  string `json:"tax_id"`
}

func (r LinkRequest) Validate() error {
	if strings.TrimSpace(r.Number) == "" || strings.TrimSpace(r.TaxID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "number and tax_id are required")
	}
	return nil
}

func (h *Handler) HandleSetOrganizationScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	taxID := chi.URLParam(r, "taxID")

	req, ok := httputil.DecodeAndPrepare[ScoreRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetOrganizationScore(ctx, taxID, req.Score, domain.RiskLevel(req.Risk)); err != nil {
		h.logger.ErrorContext(ctx, "organization score override failed",
			"request_id", requestID, "tax_id", taxID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetPhoneScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PhoneScoreRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetPhoneScore(ctx, req.Number, req.Score, domain.RiskLevel(req.Risk)); err != nil {
		h.logger.ErrorContext(ctx, "phone score override failed",
			"request_id", requestID, "number", req.Number, "error", err)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLinkPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LinkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.LinkPhone(ctx, req.Number, req.TaxID); err != nil {
		h.logger.ErrorContext(ctx, "phone link failed",
			"request_id", requestID, "number", req.Number, "tax_id", req.TaxID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
