package registry

import (
	"time"

	"lexwatch/internal/fingerprint"
)

// Instrument is one legal instrument as exposed by the upstream registry
// source. Read-only to this service; the upstream owns its lifecycle.
type Instrument struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Number        string `json:"number"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	PromulgatedAt string `json:"promulgatedAt"`
	LastRevisedAt string `json:"lastRevisedAt,omitempty"`
}

// Entity maps the instrument onto the fingerprint service's comparable view.
// Body is supplied separately by callers that track full text.
func (i Instrument) Entity(body string) fingerprint.Entity {
	return fingerprint.Entity{
		ID:            i.ID,
		Name:          i.Name,
		Number:        i.Number,
		Category:      i.Category,
		Status:        i.Status,
		PromulgatedAt: i.PromulgatedAt,
		LastRevisedAt: i.LastRevisedAt,
		Body:          body,
	}
}

// FetchResult is the contract of one full-registry fetch.
type FetchResult struct {
	Instruments []Instrument
	TotalCount  int
	LastUpdated time.Time
	Version     string
}
