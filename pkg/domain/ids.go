// Package domain holds the typed identifiers shared across lexwatch domains.
// IDs are distinct types over uuid.UUID so the compiler rejects cross-domain
// mix-ups at call sites.
package domain

import (
	"github.com/google/uuid"

	dErrors "lexwatch/pkg/domain-errors"
)

type (
	// UserID identifies the owner of monitoring configurations and notifications.
	UserID uuid.UUID
	// ScanID identifies one scan cycle and its persisted result.
	ScanID uuid.UUID
	// SnapshotID identifies one immutable snapshot record.
	SnapshotID uuid.UUID
	// DetectionID identifies one persisted change detection.
	DetectionID uuid.UUID
	// ConfigID identifies a monitoring configuration.
	ConfigID uuid.UUID
	// NotificationID identifies a notification record.
	NotificationID uuid.UUID
)

// NewUserID returns a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewScanID returns a fresh random scan identifier.
func NewScanID() ScanID { return ScanID(uuid.New()) }

// NewSnapshotID returns a fresh random snapshot identifier.
func NewSnapshotID() SnapshotID { return SnapshotID(uuid.New()) }

// NewDetectionID returns a fresh random detection identifier.
func NewDetectionID() DetectionID { return DetectionID(uuid.New()) }

// NewConfigID returns a fresh random configuration identifier.
func NewConfigID() ConfigID { return ConfigID(uuid.New()) }

// NewNotificationID returns a fresh random notification identifier.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ScanID) String() string         { return uuid.UUID(id).String() }
func (id SnapshotID) String() string     { return uuid.UUID(id).String() }
func (id DetectionID) String() string    { return uuid.UUID(id).String() }
func (id ConfigID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// IDs render as canonical UUID strings in JSON and other text encodings.
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id ScanID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id SnapshotID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id DetectionID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ConfigID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = UserID(u)
	return err
}

func (id *ScanID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ScanID(u)
	return err
}

func (id *SnapshotID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = SnapshotID(u)
	return err
}

func (id *DetectionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = DetectionID(u)
	return err
}

func (id *ConfigID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ConfigID(u)
	return err
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = NotificationID(u)
	return err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+": "+s)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID parses and validates a user ID at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

// ParseScanID parses and validates a scan ID.
func ParseScanID(s string) (ScanID, error) {
	u, err := parseUUID("scan id", s)
	return ScanID(u), err
}

// ParseSnapshotID parses and validates a snapshot ID.
func ParseSnapshotID(s string) (SnapshotID, error) {
	u, err := parseUUID("snapshot id", s)
	return SnapshotID(u), err
}

// ParseDetectionID parses and validates a change detection ID.
func ParseDetectionID(s string) (DetectionID, error) {
	u, err := parseUUID("detection id", s)
	return DetectionID(u), err
}

// ParseConfigID parses and validates a monitoring configuration ID.
func ParseConfigID(s string) (ConfigID, error) {
	u, err := parseUUID("config id", s)
	return ConfigID(u), err
}

// ParseNotificationID parses and validates a notification ID.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID("notification id", s)
	return NotificationID(u), err
}
