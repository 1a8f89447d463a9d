// Package report accepts community reports and links them to the entity
// graph with the same upsert-then-link pattern the verification engine
// uses: an unseen phone number gets a default-score row before the report
// references it.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"veritel/internal/audit"
	"veritel/internal/domain"
	"veritel/internal/identifier"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

var reportsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "veritel_reports_created_total",
	Help: "Reports accepted, labeled by target kind",
}, []string{"target"})

// Target classifies what a report is filed against.
type Target string

const (
	TargetOrganization  Target = "organization"
	TargetPhoneOrPerson Target = "phone_or_person"
)

// Store is the persistence surface this service needs.
type Store interface {
	UpsertPhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error
	FindPhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, error)
	EnsurePerson(ctx context.Context, name string) (*domain.Person, error)
	CreateReport(ctx context.Context, report *domain.Report) error
}

// Input carries a new report submission.
type Input struct {
	Target     Target
	Identifier string
	Rating     int
	Reason     string
	Comment    string

	ReportedEmail string
	SocialLink    string
	BankAccount   string
	ScreenshotRef string
}

// Service validates submissions and persists them.
type Service struct {
	store         Store
	defaultRegion string
	logger        *slog.Logger
	audits        audit.Publisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audits = p }
}

// New constructs the report service.
func New(store Store, defaultRegion string, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{store: store, defaultRegion: defaultRegion}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create links and persists a report. Submitter IP and user agent come
// from the request context set by middleware.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Report, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rating must be between 1 and 5")
	}
	if in.Identifier == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "identifier is required")
	}

	report := &domain.Report{
		Rating:        in.Rating,
		Reason:        in.Reason,
		Comment:       in.Comment,
		SourceIP:      requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
		ReportedEmail: in.ReportedEmail,
		SocialLink:    in.SocialLink,
		BankAccount:   in.BankAccount,
		ScreenshotRef: in.ScreenshotRef,
		CreatedAt:     requestcontext.Now(ctx),
	}

	switch in.Target {
	case TargetOrganization:
		if !identifier.IsTaxID(in.Identifier) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "organization reports require a 10-digit tax ID")
		}
		report.OrgTaxID = in.Identifier

	case TargetPhoneOrPerson:
		cls := identifier.Classify(in.Identifier, s.defaultRegion)
		switch cls.Kind {
		case identifier.KindPhone:
			if err := s.ensurePhone(ctx, cls); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "phone upsert failed")
			}
			report.PhoneNumber = cls.Canonical
			report.RawPhone = cls.Raw
		default:
			person, err := s.store.EnsurePerson(ctx, cls.Canonical)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "person resolution failed")
			}
			report.PersonID = person.ID
		}

	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "target must be organization or phone_or_person")
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "report persistence failed")
	}
	reportsCreated.WithLabelValues(string(in.Target)).Inc()

	if s.logger != nil {
		s.logger.InfoContext(ctx, "report created",
			"request_id", requestcontext.RequestID(ctx),
			"report_id", report.ID,
			"target", in.Target,
			"rating", in.Rating,
		)
	}
	if s.audits != nil {
		_ = s.audits.Emit(ctx, audit.Event{
			Action:  audit.ActionReportCreated,
			Subject: report.ID,
			Detail: map[string]string{
				"target": string(in.Target),
				"rating": fmt.Sprintf("%d", in.Rating),
			},
		})
	}
	return report, nil
}

// ensurePhone upserts the number with the neutral default before the
// report links to it, preserving any existing row's score.
func (s *Service) ensurePhone(ctx context.Context, cls identifier.Classification) error {
	existing, err := s.store.FindPhoneNumber(ctx, cls.Canonical)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.store.UpsertPhoneNumber(ctx, &domain.PhoneNumber{
		Number:      cls.Canonical,
		CountryCode: cls.CountryCode,
		TrustScore:  domain.DefaultTrustScore,
		RiskLevel:   domain.RiskNoData,
		CreatedAt:   requestcontext.Now(ctx),
	})
}
