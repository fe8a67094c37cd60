package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{ChatID: -100, UserID: 7}

	_, ok, err := store.Get(ctx, key, FieldState)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, FieldState, string(StateAwaitingCategory)))

	value, ok, err := store.Get(ctx, key, FieldState)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(StateAwaitingCategory), value)

	// pop consumes
	value, ok, err = store.Pop(ctx, key, FieldState)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(StateAwaitingCategory), value)

	_, ok, err = store.Pop(ctx, key, FieldState)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	alice := Key{ChatID: -100, UserID: 1}
	bob := Key{ChatID: -100, UserID: 2}

	require.NoError(t, store.Set(ctx, alice, FieldScanBatch, `{"mode":"add"}`))

	_, ok, err := store.Get(ctx, bob, FieldScanBatch)
	require.NoError(t, err)
	assert.False(t, ok, "same chat, different user must not share state")
}

func TestMemoryStoreClearDefaultsToAllFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{ChatID: 5, UserID: 5}

	require.NoError(t, store.Set(ctx, key, FieldState, string(StateFixingBarcode)))
	require.NoError(t, store.Set(ctx, key, FieldReviewBarcode, "111"))
	require.NoError(t, store.Set(ctx, key, FieldReviewSkip, `["222"]`))

	require.NoError(t, store.Clear(ctx, key))

	for _, field := range []string{FieldState, FieldReviewBarcode, FieldReviewSkip} {
		_, ok, err := store.Get(ctx, key, field)
		require.NoError(t, err)
		assert.False(t, ok, field)
	}
}
