package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritel/internal/audit"
	"veritel/internal/domain"
	"veritel/internal/identifier"
	"veritel/internal/registry"
	"veritel/internal/verify/metrics"
	"veritel/internal/verify/ports"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

// evidenceWindow caps how many reports verify-organization returns. The
// phone/person path returns the full set.
const evidenceWindow = 10

// Service composes the normalizer, the cache arbiter, the report
// aggregator, and the scoring policies into the two public verification
// operations.
type Service struct {
	store         ports.EntityStore
	arbiter       *arbiter
	orgPolicy     OrganizationPolicy
	phonePolicy   PhonePersonPolicy
	defaultRegion string

	logger  *slog.Logger
	metrics *metrics.Metrics
	audits  audit.Publisher
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audits = p }
}

func WithFreshnessWindow(window time.Duration) Option {
	return func(s *Service) { s.arbiter.window = window }
}

func WithPolicies(org OrganizationPolicy, phone PhonePersonPolicy) Option {
	return func(s *Service) {
		s.orgPolicy = org
		s.phonePolicy = phone
		s.arbiter.orgPolicy = org
	}
}

// New constructs the verification service. defaultRegion is the region
// hint handed to the phone normalizer.
func New(store ports.EntityStore, client ports.RegistryClient, defaultRegion string, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("entity store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("registry client is required")
	}

	svc := &Service{
		store:         store,
		orgPolicy:     DefaultOrganizationPolicy,
		phonePolicy:   DefaultPhonePersonPolicy,
		defaultRegion: defaultRegion,
		tracer:        otel.Tracer("veritel/verify"),
	}
	svc.arbiter = newArbiter(store, client, defaultFreshWindow, svc.orgPolicy)
	for _, opt := range opts {
		opt(svc)
	}
	// wrap the registry client once the final metrics handle is known
	svc.arbiter.registry = instrumentedRegistry{inner: client, m: svc.metrics}
	svc.arbiter.orgPolicy = svc.orgPolicy
	return svc, nil
}

// OrganizationResult is the outcome of verify-organization. Known is false
// when the registry has no record of the tax ID; the result then carries
// score 0 and the most severe risk label with nothing persisted.
type OrganizationResult struct {
	TaxID        string
	Name         string
	VATStatus    string
	Score        int
	Risk         domain.RiskLevel
	Source       Source
	Known        bool
	Phones       []domain.PhoneNumber
	Reports      []domain.Report
	TotalReports int
}

// PhonePersonResult is the outcome of verify-phone-or-person.
type PhonePersonResult struct {
	Query        string
	Canonical    string
	Kind         identifier.Kind
	ValidPhone   bool
	Score        int
	Risk         domain.RiskLevel
	Organization *domain.Organization
	Person       *domain.Person
	Reports      []domain.Report
}

// VerifyOrganization resolves a tax ID through the cache arbiter,
// aggregates its reports, and scores it with the organization policy.
//
// This read has a side effect: a stale or missing record is refreshed from
// the registry and written through.
func (s *Service) VerifyOrganization(ctx context.Context, taxID string) (*OrganizationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verify.Organization")
	defer span.End()

	if !identifier.IsTaxID(taxID) {
		s.metrics.ObserveVerification("organization", "invalid")
		return nil, dErrors.New(dErrors.CodeBadRequest, "tax ID must be exactly 10 digits")
	}

	org, source, baseScore, err := s.arbiter.Resolve(ctx, taxID)
	if err != nil {
		if errors.Is(err, errOrganizationUnknown) {
			s.metrics.ObserveVerification("organization", "unknown")
			s.emitAudit(ctx, audit.Event{
				Action:  audit.ActionOrganizationVerified,
				Subject: taxID,
				Detail:  map[string]string{"outcome": "unknown"},
			})
			return &OrganizationResult{
				TaxID: taxID,
				Score: 0,
				Risk:  domain.RiskCritical,
				Known: false,
			}, nil
		}
		s.metrics.ObserveVerification("organization", "error")
		if errors.Is(err, registry.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "tax registry is unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "organization lookup failed")
	}
	s.metrics.ObserveCacheSource(string(source))

	reports, err := aggregateReports(ctx, s.store, ResolvedEntities{Organization: org})
	if err != nil {
		s.metrics.ObserveVerification("organization", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "report aggregation failed")
	}

	score, risk := s.orgPolicy.Score(baseScore, countNegative(reports))

	span.SetAttributes(
		attribute.String("verify.source", string(source)),
		attribute.Int("verify.score", score),
	)
	s.logVerification(ctx, "organization verified",
		"tax_id", taxID,
		"source", source,
		"score", score,
		"risk", risk,
		"reports", len(reports),
	)
	s.metrics.ObserveVerification("organization", "ok")
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionOrganizationVerified,
		Subject: taxID,
		Detail: map[string]string{
			"source": string(source),
			"score":  strconv.Itoa(score),
			"risk":   string(risk),
		},
	})

	evidence := reports
	if len(evidence) > evidenceWindow {
		evidence = evidence[:evidenceWindow]
	}
	return &OrganizationResult{
		TaxID:        org.TaxID,
		Name:         org.Name,
		VATStatus:    org.VATStatus,
		Score:        score,
		Risk:         risk,
		Source:       source,
		Known:        true,
		Phones:       org.Phones,
		Reports:      evidence,
		TotalReports: len(reports),
	}, nil
}

// VerifyPhoneOrPerson classifies the raw input and resolves it against the
// phone and person relations. A phone classification resolves both the
// PhoneNumber record and a Person stored under the same canonical string;
// either, both, or neither may exist.
func (s *Service) VerifyPhoneOrPerson(ctx context.Context, rawInput string) (*PhonePersonResult, error) {
	ctx, span := s.tracer.Start(ctx, "verify.PhoneOrPerson")
	defer span.End()

	cls := identifier.Classify(rawInput, s.defaultRegion)
	if cls.Canonical == "" {
		s.metrics.ObserveVerification("phone_or_person", "invalid")
		return nil, dErrors.New(dErrors.CodeBadRequest, "query must not be empty")
	}

	result := &PhonePersonResult{
		Query:      cls.Raw,
		Canonical:  cls.Canonical,
		Kind:       cls.Kind,
		ValidPhone: cls.ValidPhone,
	}

	var (
		resolved      ResolvedEntities
		existedBefore bool
		storedScore   int
		storedRisk    domain.RiskLevel
	)

	if cls.Kind == identifier.KindPhone {
		phone, err := s.store.FindPhoneNumber(ctx, cls.Canonical)
		if err != nil {
			s.metrics.ObserveVerification("phone_or_person", "error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "phone lookup failed")
		}
		existedBefore = phone != nil
		if phone == nil {
			// first sighting: persist the number with the neutral default
			phone = &domain.PhoneNumber{
				Number:      cls.Canonical,
				CountryCode: cls.CountryCode,
				TrustScore:  domain.DefaultTrustScore,
				RiskLevel:   domain.RiskNoData,
				CreatedAt:   requestcontext.Now(ctx),
			}
			if err := s.store.UpsertPhoneNumber(ctx, phone); err != nil {
				s.metrics.ObserveVerification("phone_or_person", "error")
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "phone upsert failed")
			}
		} else {
			storedScore = phone.TrustScore
			storedRisk = phone.RiskLevel
		}
		resolved.Phone = phone

		if phone.OrgTaxID != "" {
			org, err := s.store.FindOrganization(ctx, phone.OrgTaxID)
			if err != nil {
				s.metrics.ObserveVerification("phone_or_person", "error")
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "linked organization lookup failed")
			}
			result.Organization = org
		}
	}

	// The person path runs unconditionally: the same string may have been
	// stored as someone's identifying label rather than as a phone FK.
	person, err := s.store.FindPersonByName(ctx, cls.Canonical)
	if err != nil {
		s.metrics.ObserveVerification("phone_or_person", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "person lookup failed")
	}
	resolved.Person = person
	result.Person = person

	if cls.Kind != identifier.KindPhone && person != nil {
		existedBefore = true
		storedScore = person.TrustScore
		storedRisk = person.RiskLevel
	}

	reports, err := aggregateReports(ctx, s.store, resolved)
	if err != nil {
		s.metrics.ObserveVerification("phone_or_person", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "report aggregation failed")
	}
	result.Reports = reports

	result.Score, result.Risk = s.phonePolicy.Score(countNegative(reports), existedBefore, storedScore, storedRisk)

	span.SetAttributes(
		attribute.String("verify.kind", string(cls.Kind)),
		attribute.Int("verify.score", result.Score),
	)
	s.logVerification(ctx, "phone or person verified",
		"canonical", cls.Canonical,
		"kind", cls.Kind,
		"score", result.Score,
		"risk", result.Risk,
		"reports", len(reports),
	)
	s.metrics.ObserveVerification("phone_or_person", "ok")
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionPhoneVerified,
		Subject: cls.Canonical,
		Detail: map[string]string{
			"kind":  string(cls.Kind),
			"score": strconv.Itoa(result.Score),
			"risk":  string(result.Risk),
		},
	})
	return result, nil
}

func (s *Service) logVerification(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	args = append(args, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, msg, args...)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// instrumentedRegistry decorates the registry client with call metrics.
type instrumentedRegistry struct {
	inner ports.RegistryClient
	m     *metrics.Metrics
}

func (c instrumentedRegistry) Lookup(ctx context.Context, taxID string, asOf time.Time) (*registry.Record, error) {
	start := time.Now()
	rec, err := c.inner.Lookup(ctx, taxID, asOf)
	outcome := "found"
	switch {
	case errors.Is(err, registry.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "unavailable"
	}
	c.m.ObserveRegistryCall(outcome, time.Since(start))
	return rec, err
}
