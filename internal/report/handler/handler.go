package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"veritel/internal/domain"
	"veritel/internal/report"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/platform/httputil"
	"veritel/pkg/requestcontext"
)

// Service defines the report operations this handler exposes.
type Service interface {
	Create(ctx context.Context, in report.Input) (*domain.Report, error)
}

// Handler wires report submission to the report service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a report handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts report endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reports", h.HandleCreate)
}

// CreateRequest is the body of POST /reports.
type CreateRequest struct {
	Target        string `json:"target"`
	Identifier    string `json:"identifier"`
	Rating        int    `json:"rating"`
	Reason        string `json:"reason"`
	Comment       string `json:"comment"`
	ReportedEmail string `json:"reported_email"`
	SocialLink    string `json:"social_link"`
	BankAccount   string `json:"bank_account"`
	ScreenshotRef string `json:"screenshot_ref"`
}

func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Identifier) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "identifier is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return dErrors.New(dErrors.CodeBadRequest, "rating must be between 1 and 5")
	}
	switch report.Target(r.Target) {
	case report.TargetOrganization, report.TargetPhoneOrPerson:
		return nil
	default:
		return dErrors.New(dErrors.CodeBadRequest, "target must be organization or phone_or_person")
	}
}

// CreateResponse confirms a stored report.
type CreateResponse struct {
	ID        string `json:"id"`
	Target    string `json:"target"`
	CreatedAt string `json:"created_at"`
}

// HandleCreate handles POST /reports.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, report.Input{
		Target:        report.Target(req.Target),
		Identifier:    req.Identifier,
		Rating:        req.Rating,
		Reason:        req.Reason,
		Comment:       req.Comment,
		ReportedEmail: req.ReportedEmail,
		SocialLink:    req.SocialLink,
		BankAccount:   req.BankAccount,
		ScreenshotRef: req.ScreenshotRef,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "report creation failed",
			"request_id", requestID,
			"target", req.Target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		ID:        created.ID,
		Target:    req.Target,
		CreatedAt: created.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
