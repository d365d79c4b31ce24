package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexwatch/internal/notify/models"
	"lexwatch/pkg/domain"
	"lexwatch/pkg/platform/sentinel"
)

func notificationFor(userID domain.UserID, createdAt time.Time) models.Notification {
	return models.Notification{
		ID:        domain.NewNotificationID(),
		ConfigID:  domain.NewConfigID(),
		UserID:    userID,
		ScanID:    domain.NewScanID(),
		Type:      models.TypeImmediate,
		Summary:   "2 new, 0 modified, 0 removed instruments",
		CreatedAt: createdAt,
	}
}

func TestInMemoryStore_GetByUser(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	alice := domain.NewUserID()
	bob := domain.NewUserID()

	first := notificationFor(alice, time.Now().Add(-time.Hour))
	second := notificationFor(alice, time.Now())
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, notificationFor(bob, time.Now())))

	got, err := store.GetByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID, "newest first")
	assert.Equal(t, first.ID, got[1].ID)
}

func TestInMemoryStore_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	userID := domain.NewUserID()

	n := notificationFor(userID, time.Now())
	require.NoError(t, store.Save(ctx, n))

	t.Run("unknown id", func(t *testing.T) {
		err := store.MarkRead(ctx, domain.NewNotificationID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("flips exactly once", func(t *testing.T) {
		require.NoError(t, store.MarkRead(ctx, n.ID))

		got, err := store.GetByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Read)

		assert.ErrorIs(t, store.MarkRead(ctx, n.ID), sentinel.ErrInvalidState)
	})
}
