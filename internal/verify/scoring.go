package verify

import (
	"veritel/internal/domain"
)

// The organization path and the phone/person path score negative reports
// with different penalty weights, different trigger conditions, and
// different risk tables. The asymmetry is inherited behavior; keep the two
// policies as separate named structs rather than folding them into one
// constant table. See DESIGN.md before changing either.

// OrganizationPolicy scores registry-derived subjects. Risk is derived
// purely from the final numeric score via fixed thresholds.
type OrganizationPolicy struct {
	PenaltyPerNegative int
}

// DefaultOrganizationPolicy matches the registry scoring weights: base 30
// for a registry hit, 40 for active VAT, 20 for a bank account, minus 15
// per negative report.
var DefaultOrganizationPolicy = OrganizationPolicy{PenaltyPerNegative: 15}

// Score applies the negative-report penalty and derives risk from the
// threshold table. The floor at zero is deliberate; there is no ceiling.
func (p OrganizationPolicy) Score(baseScore, negativeCount int) (int, domain.RiskLevel) {
	final := baseScore
	if negativeCount > 0 {
		final -= negativeCount * p.PenaltyPerNegative
	}
	if final < 0 {
		final = 0
	}
	return final, p.RiskFor(final)
}

// RiskFor maps a score to the organization risk table.
func (p OrganizationPolicy) RiskFor(score int) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskVeryLow
	case score >= 50:
		return domain.RiskMedium
	case score >= 20:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// PhonePersonPolicy scores report-derived subjects (phone numbers and
// persons). The penalty depends on whether the subject pre-existed in the
// store, and the known-subject adjustment only fires while the stored score
// still equals the untouched neutral default, so repeated verifications do
// not compound.
type PhonePersonPolicy struct {
	NewSubjectPenalty   int
	KnownSubjectPenalty int
	NeutralScore        int
}

// DefaultPhonePersonPolicy carries the inherited weights: 20 per negative
// for unseen subjects, 15 for known subjects still at the neutral default.
var DefaultPhonePersonPolicy = PhonePersonPolicy{
	NewSubjectPenalty:   20,
	KnownSubjectPenalty: 15,
	NeutralScore:        domain.DefaultTrustScore,
}

// Score computes the final score and risk for a phone/person subject.
// storedScore and storedRisk are ignored when existedBefore is false.
func (p PhonePersonPolicy) Score(negativeCount int, existedBefore bool, storedScore int, storedRisk domain.RiskLevel) (int, domain.RiskLevel) {
	if !existedBefore {
		if negativeCount > 0 {
			return floor(p.NeutralScore - negativeCount*p.NewSubjectPenalty), domain.RiskHigh
		}
		return p.NeutralScore, domain.RiskNoData
	}
	if negativeCount > 0 && storedScore == p.NeutralScore {
		return floor(storedScore - negativeCount*p.KnownSubjectPenalty), domain.RiskElevated
	}
	return storedScore, storedRisk
}

func floor(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
