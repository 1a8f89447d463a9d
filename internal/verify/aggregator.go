package verify

import (
	"context"
	"fmt"
	"sort"

	"veritel/internal/domain"
	"veritel/internal/verify/ports"
)

// ResolvedEntities is the set of entity handles a query resolved to. Zero
// to all three may be set at once; a phone-number query also resolves a
// Person when the same string was stored as someone's name.
type ResolvedEntities struct {
	Organization *domain.Organization
	Phone        *domain.PhoneNumber
	Person       *domain.Person
}

// aggregateReports gathers every report reachable from the resolved
// entities, dedupes by report identity, and orders the result by creation
// time descending.
//
// A report linked to both a phone number and a person is reachable twice;
// the first occurrence wins, with fetches in fixed precedence order
// (organization, phone, person) so ties are deterministic. The deduped
// sequence is then re-sorted with a stable sort, so equal timestamps keep
// their precedence order.
func aggregateReports(ctx context.Context, store ports.EntityStore, resolved ResolvedEntities) ([]domain.Report, error) {
	var combined []domain.Report

	if resolved.Organization != nil {
		reports, err := store.FindReportsByOrganization(ctx, resolved.Organization.TaxID)
		if err != nil {
			return nil, fmt.Errorf("reports by organization: %w", err)
		}
		combined = append(combined, reports...)
	}
	if resolved.Phone != nil {
		reports, err := store.FindReportsByPhone(ctx, resolved.Phone.Number)
		if err != nil {
			return nil, fmt.Errorf("reports by phone: %w", err)
		}
		combined = append(combined, reports...)
	}
	if resolved.Person != nil {
		reports, err := store.FindReportsByPerson(ctx, resolved.Person.ID)
		if err != nil {
			return nil, fmt.Errorf("reports by person: %w", err)
		}
		combined = append(combined, reports...)
	}

	seen := make(map[string]struct{}, len(combined))
	deduped := combined[:0]
	for _, r := range combined {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CreatedAt.After(deduped[j].CreatedAt)
	})
	return deduped, nil
}

// countNegative counts reports with a rating of 2 or lower.
func countNegative(reports []domain.Report) int {
	n := 0
	for _, r := range reports {
		if r.Negative() {
			n++
		}
	}
	return n
}
