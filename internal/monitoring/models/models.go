// Package models defines the user-scoped monitoring configuration: which
// change types and categories a user watches, and the per-bucket counts a
// diff must reach before a notification fires.
package models

import (
	"time"

	scanmodels "lexwatch/internal/scan/models"
	"lexwatch/pkg/domain"
	dErrors "lexwatch/pkg/domain-errors"
)

// Threshold holds the minimum per-bucket counts a filtered diff must reach.
// Buckets are disjunctive: any single bucket crossing its minimum is enough.
type Threshold struct {
	MinNew      int `json:"minNew"`
	MinModified int `json:"minModified"`
	MinRemoved  int `json:"minRemoved"`
}

// Configuration is one user's watch settings. Mutated only through its
// owner's administrative actions, except LastCheckAt which the notification
// evaluator advances after each dispatch cycle.
type Configuration struct {
	ID          domain.ConfigID         `json:"id"`
	UserID      domain.UserID           `json:"userId"`
	ChangeTypes []scanmodels.ChangeType `json:"changeTypes"`
	Categories  []string                `json:"categories"`
	Threshold   Threshold               `json:"threshold"`
	Active      bool                    `json:"active"`
	LastCheckAt *time.Time              `json:"lastCheckAt,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// Validate checks the configuration's invariants before persistence.
func (c Configuration) Validate() error {
	if c.UserID == (domain.UserID{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "monitoring configuration requires an owner")
	}
	for _, ct := range c.ChangeTypes {
		if !ct.IsValid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown change type %q", string(ct))
		}
	}
	if c.Threshold.MinNew < 0 || c.Threshold.MinModified < 0 || c.Threshold.MinRemoved < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "threshold minimums must not be negative")
	}
	return nil
}
