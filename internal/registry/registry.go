// Package registry talks to the external government tax registry. The
// engine consumes it only through the Client interface; the HTTP client and
// the deterministic mock both satisfy it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// VATStatusActive is the registry's literal for an actively registered VAT
// payer; the arbiter awards score for an exact match.
const VATStatusActive = "Active"

// Sentinel outcomes. Not-found is a domain result; unavailability is a
// service failure. Callers must never conflate the two.
var (
	ErrNotFound    = errors.New("registry: organization not found")
	ErrUnavailable = errors.New("registry: service unavailable")
)

// Record is a registry lookup result. Raw preserves the upstream payload
// verbatim for persistence and audits.
type Record struct {
	TaxID        string
	Name         string
	VATStatus    string
	BankAccounts []string
	Raw          json.RawMessage
}

// Client queries the tax registry as of a given date. Implementations must
// return ErrNotFound for unknown tax IDs and wrap transport, timeout, and
// malformed-payload failures in ErrUnavailable.
type Client interface {
	Lookup(ctx context.Context, taxID string, asOf time.Time) (*Record, error)
}
