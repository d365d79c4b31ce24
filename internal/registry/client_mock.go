package registry

import (
	"context"
	"fmt"
	"time"
)

// MockClient serves deterministic fixture data with a configurable latency to
// mimic real-world calls. Used for local development and tests.
type MockClient struct {
	Latency     time.Duration
	Instruments []Instrument
	LastUpdated time.Time
	Version     string
	// FailWith, when set, makes every call report an upstream failure.
	FailWith string
}

// NewMockClient returns a mock pre-loaded with a small fixture registry.
func NewMockClient() *MockClient {
	return &MockClient{
		Instruments: []Instrument{
			{ID: "law-001", Name: "Labor Standards Act", Number: "Act No. 49", Category: "labor", Status: "in_force", PromulgatedAt: "1947-04-07", LastRevisedAt: "2020-04-01"},
			{ID: "law-002", Name: "Income Tax Act", Number: "Act No. 33", Category: "tax", Status: "in_force", PromulgatedAt: "1965-03-31", LastRevisedAt: "2023-03-31"},
			{ID: "law-003", Name: "Companies Act", Number: "Act No. 86", Category: "commerce", Status: "in_force", PromulgatedAt: "2005-07-26"},
		},
		LastUpdated: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:     "mock-1",
	}
}

func (c *MockClient) FetchAll(ctx context.Context) (*FetchResult, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}
	if c.FailWith != "" {
		return nil, &UpstreamError{Message: c.FailWith}
	}
	instruments := append([]Instrument{}, c.Instruments...)
	return &FetchResult{
		Instruments: instruments,
		TotalCount:  len(instruments),
		LastUpdated: c.LastUpdated,
		Version:     c.Version,
	}, nil
}

func (c *MockClient) FetchDetail(ctx context.Context, id string) (*Instrument, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}
	if c.FailWith != "" {
		return nil, &UpstreamError{Message: c.FailWith}
	}
	for _, instrument := range c.Instruments {
		if instrument.ID == id {
			found := instrument
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstrumentNotFound, id)
}

func (c *MockClient) sleep(ctx context.Context) error {
	if c.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(c.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
