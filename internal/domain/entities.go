// Package domain holds the entities shared by the verification engine, the
// stores, and the HTTP adapters. The store layer owns persistence; the
// engine only reads and writes through the EntityStore port.
package domain

import (
	"encoding/json"
	"time"
)

// DefaultTrustScore is the neutral score assigned to entities created
// implicitly (first report or first lookup against an unseen number).
const DefaultTrustScore = 50

// RiskLevel is a coarse label derived from a trust score. Two independent
// threshold tables exist (organization path, phone/person path); see the
// verify package for both.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "Very Low"
	RiskMedium   RiskLevel = "Medium"
	RiskElevated RiskLevel = "Elevated"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
	RiskNoData   RiskLevel = "No data"
)

// Organization is keyed by its 10-digit tax ID. RawPayload preserves the
// registry response verbatim for audits.
type Organization struct {
	TaxID       string
	Name        string
	VATStatus   string
	TrustScore  int
	RiskLevel   RiskLevel
	RawPayload  json.RawMessage
	Phones      []PhoneNumber
	LastUpdated time.Time
}

// PhoneNumber is keyed by its E.164 form. OrgTaxID back-references the
// organization the number was linked to, if any.
type PhoneNumber struct {
	Number      string
	CountryCode int
	TrustScore  int
	RiskLevel   RiskLevel
	OrgTaxID    string
	CreatedAt   time.Time
}

// Person is resolved by exact display-name match only; names are not unique
// and ambiguity is accepted by design.
type Person struct {
	ID         int64
	Name       string
	TrustScore int
	RiskLevel  RiskLevel
}

// Report is a community submission against an organization, a phone number,
// or a person. A report linked to more than one target is discoverable via
// more than one aggregation path, which is why the aggregator dedupes by ID.
type Report struct {
	ID       string
	Rating   int
	Reason   string
	Comment  string
	SourceIP string

	// Target links. OrgTaxID and PhoneNumber are mutually exclusive;
	// PersonID may accompany either.
	OrgTaxID    string
	PhoneNumber string
	PersonID    int64

	// OSINT side-fields, rendered downstream as investigative evidence.
	ReportedEmail string
	SocialLink    string
	BankAccount   string
	ScreenshotRef string
	RawPhone      string
	UserAgent     string

	CreatedAt time.Time
}

// Negative reports if the rating is 2 or lower.
func (r Report) Negative() bool {
	return r.Rating <= 2
}
