// Package registry talks to the upstream legal-instrument registry. Outbound
// calls are gated through the injected rate limiter so the service stays
// polite regardless of scan frequency.
package registry

import (
	"context"
	"errors"
	"fmt"
)

// ErrInstrumentNotFound is returned by FetchDetail for unknown identifiers.
var ErrInstrumentNotFound = errors.New("instrument not found")

// UpstreamError carries the error text the upstream source reported. It is a
// normal, reportable failure, not an exceptional condition.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream registry reported failure: %s", e.Message)
}

// Client fetches the full list of instruments and single-instrument detail.
type Client interface {
	FetchAll(ctx context.Context) (*FetchResult, error)
	FetchDetail(ctx context.Context, id string) (*Instrument, error)
}
