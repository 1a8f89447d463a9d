package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DevFixtures returns the record set served when the registry URL is set
// to "mock", mirroring the fixtures of the standalone tax-registry mock.
func DevFixtures() map[string]Record {
	return map[string]Record{
		"7010301234": {
			TaxID:        "7010301234",
			Name:         "Acme Sp. z o.o.",
			VATStatus:    VATStatusActive,
			BankAccounts: []string{"PL61109010140000071219812874"},
		},
		"5252248481": {
			TaxID:     "5252248481",
			Name:      "Widget Works S.A.",
			VATStatus: VATStatusActive,
		},
		"1132619524": {
			TaxID:     "1132619524",
			Name:      "Dormant Holdings Sp. z o.o.",
			VATStatus: "Exempt",
			BankAccounts: []string{
				"PL27114020040000300201355387",
				"PL60102010260000042270201111",
			},
		},
	}
}

// MockClient serves deterministic registry data for local development and
// tests. A configurable latency mimics real-world calls.
type MockClient struct {
	Latency time.Duration

	// Records keyed by tax ID. Absent keys return ErrNotFound unless
	// FailAll forces ErrUnavailable.
	Records map[string]Record
	FailAll bool

	// Calls counts lookups for freshness assertions.
	Calls int

	mu sync.Mutex
}

func (c *MockClient) Lookup(ctx context.Context, taxID string, asOf time.Time) (*Record, error) {
	c.mu.Lock()
	c.Calls++
	c.mu.Unlock()
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}
	if c.FailAll {
		return nil, ErrUnavailable
	}
	rec, ok := c.Records[taxID]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Raw == nil {
		raw, _ := json.Marshal(map[string]any{
			"tax_id":        rec.TaxID,
			"name":          rec.Name,
			"vat_status":    rec.VATStatus,
			"bank_accounts": rec.BankAccounts,
		})
		rec.Raw = raw
	}
	return &rec, nil
}
