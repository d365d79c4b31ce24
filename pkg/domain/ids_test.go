package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lexwatch/pkg/domain-errors"
)

// Parsing happens at trust boundaries; IDs must be valid, non-empty, non-nil
// UUIDs.
func TestParseUserID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestParseID_RoundTrip(t *testing.T) {
	scanID := NewScanID()
	parsed, err := ParseScanID(scanID.String())
	require.NoError(t, err)
	assert.Equal(t, scanID, parsed)

	configID := NewConfigID()
	parsedConfig, err := ParseConfigID(configID.String())
	require.NoError(t, err)
	assert.Equal(t, configID, parsedConfig)
}

// Typed IDs prevent cross-type assignment at compile time; this only checks
// they stay distinct at runtime.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	scanID := ScanID(uuid.New())

	// var _ UserID = scanID would not compile.
	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(scanID))
}
