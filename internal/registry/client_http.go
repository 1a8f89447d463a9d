package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPClient queries the registry's REST API. Transient failures are
// retried with backoff before being surfaced as ErrUnavailable.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
}

// NewHTTPClient constructs a registry client with a bounded per-call
// timeout and capped retries.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  rc,
	}
}

// lookupResponse is the registry's wire shape for a subject.
type lookupResponse struct {
	TaxID        string   `json:"tax_id"`
	Name         string   `json:"name"`
	VATStatus    string   `json:"vat_status"`
	BankAccounts []string `json:"bank_accounts"`
}

func (c *HTTPClient) Lookup(ctx context.Context, taxID string, asOf time.Time) (*Record, error) {
	endpoint := fmt.Sprintf("%s/registry/v1/organizations/%s?asOf=%s",
		c.baseURL, url.PathEscape(taxID), asOf.Format("2006-01-02"))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// parsed below
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrUnavailable, err)
	}
	if payload.TaxID == "" {
		payload.TaxID = taxID
	}

	return &Record{
		TaxID:        payload.TaxID,
		Name:         payload.Name,
		VATStatus:    payload.VATStatus,
		BankAccounts: payload.BankAccounts,
		Raw:          json.RawMessage(body),
	}, nil
}
