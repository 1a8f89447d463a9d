// Package admin implements the moderation surface: manual score and risk
// overrides plus phone-to-organization links. Every route sits behind the
// auth middleware and every change lands on the audit trail.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"veritel/internal/audit"
	"veritel/internal/domain"
	"veritel/internal/identifier"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

// Store is the slice of persistence the admin service needs.
type Store interface {
	FindOrganization(ctx context.Context, taxID string) (*domain.Organization, error)
	FindPhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, error)
	UpsertPhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error
	LinkPhoneToOrganization(ctx context.Context, number, taxID string) error
	UpdateOrganizationScore(ctx context.Context, taxID string, score int, risk domain.RiskLevel) error
	UpdatePhoneScore(ctx context.Context, number string, score int, risk domain.RiskLevel) error
}

// Service applies moderator overrides.
type Service struct {
	store         Store
	defaultRegion string
	logger        *slog.Logger
	audit         audit.Publisher
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.audit = publisher
		}
	}
}

func NewService(store Store, defaultRegion string, opts ...Option) *Service {
	s := &Service{
		store:         store,
		defaultRegion: defaultRegion,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var validRiskLevels = map[domain.RiskLevel]struct{}{
	domain.RiskVeryLow:  {},
	domain.RiskMedium:   {},
	domain.RiskElevated: {},
	domain.RiskHigh:     {},
	domain.RiskCritical: {},
}

func validateOverride(score int, risk domain.RiskLevel) error {
	if score < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "score must not be negative")
	}
	if _, ok := validRiskLevels[risk]; !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown risk level")
	}
	return nil
}

// SetOrganizationScore overrides the stored score and risk of a known
// organization.
func (s *Service) SetOrganizationScore(ctx context.Context, taxID string, score int, risk domain.RiskLevel) error {
	if !identifier.IsTaxID(taxID) {
		return dErrors.New(dErrors.CodeBadRequest, "tax ID must be 10 digits")
	}
	if err := validateOverride(score, risk); err != nil {
		return err
	}

	org, err := s.store.FindOrganization(ctx, taxID)
	if err != nil {
		return fmt.Errorf("loading organization %s: %w", taxID, err)
	}
	if org == nil {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}

	if err := s.store.UpdateOrganizationScore(ctx, taxID, score, risk); err != nil {
		return fmt.Errorf("updating organization %s: %w", taxID, err)
	}

	s.emitEdit(ctx, taxID, map[string]string{
		"kind":  "organization_score",
		"score": strconv.Itoa(score),
		"risk":  string(risk),
	})
	s.logger.InfoContext(ctx, "organization score overridden",
		"tax_id", taxID, "score", score, "risk", risk,
		"actor", requestcontext.AdminSubject(ctx),
	)
	return nil
}

// SetPhoneScore overrides the stored score and risk of a known phone
// number. The identifier is canonicalized the same way the verify path
// does it, so moderators can paste numbers in any format.
func (s *Service) SetPhoneScore(ctx context.Context, number string, score int, risk domain.RiskLevel) error {
	cls := identifier.Classify(number, s.defaultRegion)
	if cls.Kind != identifier.KindPhone {
		return dErrors.New(dErrors.CodeBadRequest, "not a valid phone number")
	}
	if err := validateOverride(score, risk); err != nil {
		return err
	}

	phone, err := s.store.FindPhoneNumber(ctx, cls.Canonical)
	if err != nil {
		return fmt.Errorf("loading phone %s: %w", cls.Canonical, err)
	}
	if phone == nil {
		return dErrors.New(dErrors.CodeNotFound, "phone number not found")
	}

	if err := s.store.UpdatePhoneScore(ctx, cls.Canonical, score, risk); err != nil {
		return fmt.Errorf("updating phone %s: %w", cls.Canonical, err)
	}

	s.emitEdit(ctx, cls.Canonical, map[string]string{
		"kind":  "phone_score",
		"score": strconv.Itoa(score),
		"risk":  string(risk),
	})
	return nil
}

// LinkPhone attaches a phone number to an organization. An unseen number
// is registered first at the neutral default score.
func (s *Service) LinkPhone(ctx context.Context, number, taxID string) error {
	if !identifier.IsTaxID(taxID) {
		return dErrors.New(dErrors.CodeBadRequest, "tax ID must be 10 digits")
	}
	cls := identifier.Classify(number, s.defaultRegion)
	if cls.Kind != identifier.KindPhone {
		return dErrors.New(dErrors.CodeBadRequest, "not a valid phone number")
	}

	org, err := s.store.FindOrganization(ctx, taxID)
	if err != nil {
		return fmt.Errorf("loading organization %s: %w", taxID, err)
	}
	if org == nil {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}

	phone, err := s.store.FindPhoneNumber(ctx, cls.Canonical)
	if err != nil {
		return fmt.Errorf("loading phone %s: %w", cls.Canonical, err)
	}
	if phone == nil {
		now := requestcontext.Now(ctx)
		err = s.store.UpsertPhoneNumber(ctx, &domain.PhoneNumber{
			Number:      cls.Canonical,
			CountryCode: cls.CountryCode,
			TrustScore:  domain.DefaultTrustScore,
			RiskLevel:   domain.RiskNoData,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("registering phone %s: %w", cls.Canonical, err)
		}
	}

	if err := s.store.LinkPhoneToOrganization(ctx, cls.Canonical, taxID); err != nil {
		return fmt.Errorf("linking phone %s to %s: %w", cls.Canonical, taxID, err)
	}

	s.emitEdit(ctx, cls.Canonical, map[string]string{
		"kind":   "phone_link",
		"tax_id": taxID,
	})
	return nil
}

func (s *Service) emitEdit(ctx context.Context, subject string, detail map[string]string) {
	if s.audit == nil {
		return
	}
	event := audit.Fill(audit.Event{
		Action:  audit.ActionAdminEdit,
		Actor:   requestcontext.AdminSubject(ctx),
		Subject: subject,
		Detail:  detail,
	}, requestcontext.Now(ctx))
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
