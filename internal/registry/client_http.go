package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lexwatch/internal/ratelimit"
)

// fetchAllResponse mirrors the upstream list payload. The upstream reports
// failures in-band with success=false rather than HTTP status alone.
type fetchAllResponse struct {
	Instruments []Instrument `json:"instruments"`
	TotalCount  int          `json:"totalCount"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Version     string       `json:"version"`
	Success     bool         `json:"success"`
	Error       string       `json:"error"`
}

type fetchDetailResponse struct {
	Instrument *Instrument `json:"instrument"`
	Success    bool        `json:"success"`
	Error      string      `json:"error"`
}

// HTTPClient is the production Client. Every outbound request first waits for
// a rate-limiter slot.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewHTTPClient builds a rate-limited JSON client for the upstream source.
func NewHTTPClient(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (c *HTTPClient) FetchAll(ctx context.Context) (*FetchResult, error) {
	var payload fetchAllResponse
	if err := c.get(ctx, c.baseURL+"/instruments", &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, &UpstreamError{Message: payload.Error}
	}
	return &FetchResult{
		Instruments: payload.Instruments,
		TotalCount:  payload.TotalCount,
		LastUpdated: payload.LastUpdated,
		Version:     payload.Version,
	}, nil
}

func (c *HTTPClient) FetchDetail(ctx context.Context, id string) (*Instrument, error) {
	var payload fetchDetailResponse
	if err := c.get(ctx, c.baseURL+"/instruments/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Instrument == nil {
		return nil, fmt.Errorf("%w: %s", ErrInstrumentNotFound, id)
	}
	return payload.Instrument, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	if err := c.limiter.WaitForSlot(ctx, ratelimit.DefaultKey); err != nil {
		return fmt.Errorf("wait for rate limit slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrInstrumentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Message: "malformed upstream payload: " + err.Error()}
	}
	return nil
}
