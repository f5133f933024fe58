package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveItem_PrefixMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.ResolveItem(ctx, "Forgotten Sword")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}

func TestResolveItem_CaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.ResolveItem(ctx, "fOrGoTtEn sword of flame")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}

func TestResolveItem_TieBreaksOnLowestID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "Shadow" prefixes both the lance (id 3) and the dagger (id 7);
	// the lower id must win every time.
	for i := 0; i < 5; i++ {
		id, err := store.ResolveItem(ctx, "Shadow")
		require.NoError(t, err)
		assert.Equal(t, int64(3), id)
	}
}

func TestResolveItem_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ResolveItem(ctx, "Excalibur")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestResolveItem_EmptyFragment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ResolveItem(ctx, "   ")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestResolveItem_WildcardsAreLiteral(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A bare LIKE wildcard must not match everything.
	_, err := store.ResolveItem(ctx, "%")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
