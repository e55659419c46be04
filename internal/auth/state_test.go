package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStorePutConsume(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	ctx := context.Background()

	state, verifier, err := store.Put(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, verifier)
	assert.NotEqual(t, state, verifier)

	gotVerifier, gotUID, err := store.Consume(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, verifier, gotVerifier)
	assert.Equal(t, "u1", gotUID)

	// Single use: the same token never resolves twice.
	_, _, err = store.Consume(ctx, state)
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}

func TestStateStoreUnknownState(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)

	_, _, err := store.Consume(context.Background(), "never-issued")
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}

func TestStateStoreExpiryWithoutSweep(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	ctx := context.Background()

	state, _, err := store.Put(ctx, "u1")
	require.NoError(t, err)

	// Jump past the TTL. No janitor has run, but the entry must still be
	// unconsumable.
	store.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, _, err = store.Consume(ctx, state)
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}

func TestStateStoreSweep(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := store.Put(ctx, "u1")
		require.NoError(t, err)
	}

	store.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	assert.Equal(t, 5, store.sweep())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.entries)
}

func TestStateStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, _, err := store.Put(ctx, "u1")
			assert.NoError(t, err)
			_, _, err = store.Consume(ctx, state)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
