// Package models defines the notification record emitted when a diff crosses
// a monitoring configuration's threshold.
package models

import (
	"time"

	"lexwatch/pkg/domain"
)

// Type tags how a notification is delivered to its reader.
type Type string

const (
	TypeImmediate     Type = "immediate"
	TypeDailySummary  Type = "daily_summary"
	TypeWeeklySummary Type = "weekly_summary"
)

// Notification is an immutable record linking a monitoring configuration to
// the scan whose diff triggered it. Only the Read flag mutates, unread to
// read exactly once.
type Notification struct {
	ID        domain.NotificationID `json:"id"`
	ConfigID  domain.ConfigID       `json:"configId"`
	UserID    domain.UserID         `json:"userId"`
	ScanID    domain.ScanID         `json:"scanId"`
	Type      Type                  `json:"type"`
	Summary   string                `json:"summary"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"createdAt"`
}
