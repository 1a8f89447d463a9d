package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veritel/internal/domain"
	"veritel/internal/registry"
	"veritel/internal/verify/ports"
	"veritel/pkg/requestcontext"
)

// Source tells callers whether an organization came from the persisted
// cache or a live registry call.
type Source string

const (
	SourceCache Source = "CACHE"
	SourceLive  Source = "LIVE"
)

// Base score weights applied to a live registry response.
const (
	scoreRegistryHit   = 30
	scoreVATActive     = 40
	scoreHasBankAcct   = 20
	defaultFreshWindow = 24 * time.Hour
)

// errOrganizationUnknown marks the terminal not-found outcome. It never
// leaves the orchestrator; callers see a well-formed unknown-entity result.
var errOrganizationUnknown = errors.New("organization unknown to registry")

// arbiter decides per lookup whether the persisted organization is fresh
// enough to reuse or must be refreshed from the registry, and performs the
// write-through update.
//
// Resolve is the one read path with a side effect: a stale or missing
// record triggers an upsert. Two concurrent refreshes for the same tax ID
// may both call the registry and both write; registry data is immutable
// per day, so last-write-wins is benign and not worth a lock.
type arbiter struct {
	store     ports.EntityStore
	registry  ports.RegistryClient
	window    time.Duration
	orgPolicy OrganizationPolicy
}

func newArbiter(store ports.EntityStore, client ports.RegistryClient, window time.Duration, policy OrganizationPolicy) *arbiter {
	if window <= 0 {
		window = defaultFreshWindow
	}
	return &arbiter{store: store, registry: client, window: window, orgPolicy: policy}
}

// Resolve returns the organization, its source, and the base score the
// calculator starts from. Registry not-found returns errOrganizationUnknown
// with nothing written; registry unavailability propagates unchanged.
func (a *arbiter) Resolve(ctx context.Context, taxID string) (*domain.Organization, Source, int, error) {
	org, err := a.store.FindOrganization(ctx, taxID)
	if err != nil {
		return nil, "", 0, fmt.Errorf("find organization: %w", err)
	}

	now := requestcontext.Now(ctx)
	if org != nil && now.Sub(org.LastUpdated) < a.window {
		return org, SourceCache, org.TrustScore, nil
	}

	record, err := a.registry.Lookup(ctx, taxID, now)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, "", 0, errOrganizationUnknown
		}
		return nil, "", 0, err
	}

	baseScore := scoreRegistryHit
	if record.VATStatus == registry.VATStatusActive {
		baseScore += scoreVATActive
	}
	if len(record.BankAccounts) > 0 {
		baseScore += scoreHasBankAcct
	}

	refreshed := &domain.Organization{
		TaxID:       taxID,
		Name:        record.Name,
		VATStatus:   record.VATStatus,
		TrustScore:  baseScore,
		RiskLevel:   a.orgPolicy.RiskFor(baseScore),
		RawPayload:  record.Raw,
		LastUpdated: now,
	}
	if org != nil {
		refreshed.Phones = org.Phones
	}
	if err := a.store.UpsertOrganization(ctx, refreshed); err != nil {
		return nil, "", 0, fmt.Errorf("upsert organization: %w", err)
	}
	return refreshed, SourceLive, baseScore, nil
}
