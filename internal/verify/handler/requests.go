package handler

import (
	"strings"

	dErrors "veritel/pkg/domain-errors"
)

// VerifyOrganizationRequest is the body of POST /verify/organization.
type VerifyOrganizationRequest struct {
	TaxID string `json:"tax_id"`
}

func (r VerifyOrganizationRequest) Validate() error {
	if strings.TrimSpace(r.TaxID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "tax_id is required")
	}
	return nil
}

// VerifyQueryRequest is the body of POST /verify/query.
type VerifyQueryRequest struct {
	Query string `json:"query"`
}

func (r VerifyQueryRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "query is required")
	}
	return nil
}
