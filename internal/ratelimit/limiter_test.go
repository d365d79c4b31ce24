package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	t.Run("admits up to the limit then denies", func(t *testing.T) {
		l := New(3, time.Second)
		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow(DefaultKey), "admission %d", i+1)
		}
		assert.False(t, l.Allow(DefaultKey))
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := New(1, time.Second)
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
		assert.True(t, l.Allow("b"))
	})

	t.Run("expired timestamps free slots", func(t *testing.T) {
		now := time.Now()
		clock := func() time.Time { return now }
		l := New(2, time.Second, WithClock(func() time.Time { return clock() }))

		require.True(t, l.Allow(DefaultKey))
		require.True(t, l.Allow(DefaultKey))
		require.False(t, l.Allow(DefaultKey))

		now = now.Add(1100 * time.Millisecond)
		assert.True(t, l.Allow(DefaultKey))
	})
}

func TestIntrospection(t *testing.T) {
	now := time.Now()
	l := New(3, time.Second, WithClock(func() time.Time { return now }))

	assert.Equal(t, 3, l.Remaining(DefaultKey))
	assert.True(t, l.ResetTime(DefaultKey).IsZero())

	require.True(t, l.Allow(DefaultKey))
	assert.Equal(t, 2, l.Remaining(DefaultKey))
	assert.Equal(t, now.Add(time.Second), l.ResetTime(DefaultKey))
}

func TestWaitForSlot(t *testing.T) {
	t.Run("five calls at limit three complete with delays", func(t *testing.T) {
		const window = 300 * time.Millisecond
		l := New(3, window)
		ctx := context.Background()

		var admitted []time.Time
		for i := 0; i < 5; i++ {
			require.NoError(t, l.WaitForSlot(ctx, DefaultKey))
			admitted = append(admitted, time.Now())
		}
		require.Len(t, admitted, 5)

		// First three are immediate, fourth and fifth each wait for a slot.
		assert.Less(t, admitted[2].Sub(admitted[0]), window/2)
		assert.GreaterOrEqual(t, admitted[3].Sub(admitted[0]), window)

		// No window of the configured duration may contain 4 admissions.
		sort.Slice(admitted, func(i, j int) bool { return admitted[i].Before(admitted[j]) })
		for i := 0; i+3 < len(admitted); i++ {
			assert.Greater(t, admitted[i+3].Sub(admitted[i]), window,
				"4 admissions observed within one window")
		}
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		l := New(1, time.Minute)
		require.True(t, l.Allow(DefaultKey))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := l.WaitForSlot(ctx, DefaultKey)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestAllow_Concurrent(t *testing.T) {
	const limit = 50
	l := New(limit, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(DefaultKey) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted, "exactly the limit must be admitted")
}
