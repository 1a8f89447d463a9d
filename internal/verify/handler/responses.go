package handler

import (
	"time"

	"veritel/internal/domain"
	"veritel/internal/verify"
)

// ReportResponse carries one piece of evidence including every OSINT side
// field; consumers render these as investigative material, so nothing is
// omitted.
type ReportResponse struct {
	ID            string    `json:"id"`
	Rating        int       `json:"rating"`
	Reason        string    `json:"reason"`
	Comment       string    `json:"comment"`
	ReportedEmail string    `json:"reported_email,omitempty"`
	SocialLink    string    `json:"social_link,omitempty"`
	BankAccount   string    `json:"bank_account,omitempty"`
	ScreenshotRef string    `json:"screenshot_ref,omitempty"`
	RawPhone      string    `json:"raw_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// PhoneResponse is a linked phone number summary.
type PhoneResponse struct {
	Number     string           `json:"number"`
	TrustScore int              `json:"trust_score"`
	RiskLevel  domain.RiskLevel `json:"risk_level"`
}

// OrganizationResponse is the wire shape of a verify-organization result.
type OrganizationResponse struct {
	TaxID        string           `json:"tax_id"`
	Name         string           `json:"name,omitempty"`
	VATStatus    string           `json:"vat_status,omitempty"`
	Score        int              `json:"score"`
	Risk         domain.RiskLevel `json:"risk"`
	Source       string           `json:"source,omitempty"`
	Known        bool             `json:"known"`
	Phones       []PhoneResponse  `json:"phones,omitempty"`
	Reports      []ReportResponse `json:"reports"`
	TotalReports int              `json:"total_reports"`
}

// QueryResponse is the wire shape of a verify-phone-or-person result.
type QueryResponse struct {
	Query        string                `json:"query"`
	Canonical    string                `json:"canonical"`
	Kind         string                `json:"kind"`
	ValidPhone   bool                  `json:"valid_phone"`
	Score        int                   `json:"score"`
	Risk         domain.RiskLevel      `json:"risk"`
	Organization *OrganizationSummary  `json:"organization,omitempty"`
	PersonName   string                `json:"person_name,omitempty"`
	Reports      []ReportResponse      `json:"reports"`
}

// OrganizationSummary is the linked-organization stub on a query result.
type OrganizationSummary struct {
	TaxID     string           `json:"tax_id"`
	Name      string           `json:"name"`
	RiskLevel domain.RiskLevel `json:"risk_level"`
}

func fromReports(reports []domain.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, ReportResponse{
			ID:            r.ID,
			Rating:        r.Rating,
			Reason:        r.Reason,
			Comment:       r.Comment,
			ReportedEmail: r.ReportedEmail,
			SocialLink:    r.SocialLink,
			BankAccount:   r.BankAccount,
			ScreenshotRef: r.ScreenshotRef,
			RawPhone:      r.RawPhone,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

// FromOrganizationResult converts an engine result to its response shape.
func FromOrganizationResult(result *verify.OrganizationResult) OrganizationResponse {
	phones := make([]PhoneResponse, 0, len(result.Phones))
	for _, p := range result.Phones {
		phones = append(phones, PhoneResponse{
			Number:     p.Number,
			TrustScore: p.TrustScore,
			RiskLevel:  p.RiskLevel,
		})
	}
	return OrganizationResponse{
		TaxID:        result.TaxID,
		Name:         result.Name,
		VATStatus:    result.VATStatus,
		Score:        result.Score,
		Risk:         result.Risk,
		Source:       string(result.Source),
		Known:        result.Known,
		Phones:       phones,
		Reports:      fromReports(result.Reports),
		TotalReports: result.TotalReports,
	}
}

// FromQueryResult converts an engine result to its response shape.
func FromQueryResult(result *verify.PhonePersonResult) QueryResponse {
	resp := QueryResponse{
		Query:      result.Query,
		Canonical:  result.Canonical,
		Kind:       string(result.Kind),
		ValidPhone: result.ValidPhone,
		Score:      result.Score,
		Risk:       result.Risk,
		Reports:    fromReports(result.Reports),
	}
	if result.Organization != nil {
		resp.Organization = &OrganizationSummary{
			TaxID:     result.Organization.TaxID,
			Name:      result.Organization.Name,
			RiskLevel: result.Organization.RiskLevel,
		}
	}
	if result.Person != nil {
		resp.PersonName = result.Person.Name
	}
	return resp
}
