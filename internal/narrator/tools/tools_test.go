package tools

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hw112/lldm/internal/ledger"
)

var testScope = ledger.Scope{CampaignID: 0, CharacterID: 0}

func newTestLedger(t *testing.T) *ledger.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.DB().Exec(`
		INSERT INTO WORLD_ITEMS (Item_ID, Weapon_Name, Weapon_Description) VALUES
		(3, 'Shadow Lance of Storm', 'A lance crackling with storm energy'),
		(7, 'Shadowfang Dagger', 'A curved dagger of blackened steel')`)
	require.NoError(t, err)

	return store
}

func TestObtainTool_Success(t *testing.T) {
	store := newTestLedger(t)
	tool := NewObtainTool(store, testScope)
	ctx := context.Background()

	out := tool.Execute(ctx, map[string]any{"item_name": "Shadow Lance of Storm", "quantity": float64(1)})
	assert.True(t, out.Success)
	assert.Equal(t, msgObtained, out.Message)

	rows, err := store.Snapshot(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].ItemID)
	assert.Equal(t, int64(1), rows[0].Quantity)
}

func TestObtainTool_PrefixResolvesLowestID(t *testing.T) {
	store := newTestLedger(t)
	tool := NewObtainTool(store, testScope)

	out := tool.Execute(context.Background(), map[string]any{"item_name": "Shadow", "quantity": float64(1)})
	require.True(t, out.Success)

	rows, err := store.Snapshot(context.Background(), testScope)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].ItemID)
}

func TestObtainTool_UnknownItem(t *testing.T) {
	store := newTestLedger(t)
	tool := NewObtainTool(store, testScope)

	out := tool.Execute(context.Background(), map[string]any{"item_name": "Excalibur", "quantity": float64(1)})
	assert.False(t, out.Success)
	assert.Equal(t, msgItemNotFound, out.Message)

	rows, err := store.Snapshot(context.Background(), testScope)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestObtainTool_ValidateQuantity(t *testing.T) {
	store := newTestLedger(t)
	tool := NewObtainTool(store, testScope)

	cases := []map[string]any{
		{"item_name": "Shadow Lance", "quantity": float64(0)},
		{"item_name": "Shadow Lance", "quantity": float64(-2)},
		{"item_name": "Shadow Lance", "quantity": 1.5},
		{"item_name": "Shadow Lance", "quantity": "three"},
		{"item_name": "Shadow Lance"},
	}
	for _, args := range cases {
		err := tool.Validate(args)
		require.Error(t, err, "args %v", args)
		assert.NotEmpty(t, ValidationMessage(err))
	}
}

func TestObtainTool_ScreensInjectionInItemName(t *testing.T) {
	store := newTestLedger(t)
	tool := NewObtainTool(store, testScope)

	err := tool.Validate(map[string]any{
		"item_name": "x' OR '1'='1",
		"quantity":  float64(1),
	})
	assert.Error(t, err)
}

func TestDiscardTool_NotPossessed(t *testing.T) {
	store := newTestLedger(t)
	tool := NewDiscardTool(store, testScope)

	out := tool.Execute(context.Background(), map[string]any{"item_name": "Shadowfang", "quantity": float64(1)})
	assert.False(t, out.Success)
	assert.Equal(t, msgNotPossessed, out.Message)
}

func TestDiscardTool_ObtainThenDiscardEmptiesInventory(t *testing.T) {
	store := newTestLedger(t)
	obtain := NewObtainTool(store, testScope)
	discard := NewDiscardTool(store, testScope)
	ctx := context.Background()

	require.True(t, obtain.Execute(ctx, map[string]any{"item_name": "Shadowfang", "quantity": float64(1)}).Success)

	out := discard.Execute(ctx, map[string]any{"item_name": "Shadowfang", "quantity": float64(1)})
	assert.True(t, out.Success)
	assert.Equal(t, msgDiscarded, out.Message)

	rows, err := store.Snapshot(ctx, testScope)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestQueryInfoTool_ReturnsRowsAsJSON(t *testing.T) {
	store := newTestLedger(t)
	obtain := NewObtainTool(store, testScope)
	tool := NewQueryInfoTool(store, testScope)
	ctx := context.Background()

	require.True(t, obtain.Execute(ctx, map[string]any{"item_name": "Shadow Lance", "quantity": float64(2)}).Success)

	out := tool.Execute(ctx, map[string]any{"sql_query": "SELECT Weapon_Name, Quantity FROM CHARACTER_INVENTORY_DETAILS"})
	require.True(t, out.Success)
	assert.Contains(t, out.Message, "Shadow Lance of Storm")
	assert.Contains(t, out.Message, "JSON format")
}

func TestQueryInfoTool_RejectionsAreGeneric(t *testing.T) {
	store := newTestLedger(t)
	tool := NewQueryInfoTool(store, testScope)
	ctx := context.Background()

	cases := []string{
		"DROP TABLE WORLD_ITEMS",
		"SELECT * FROM X; DELETE FROM Y",
		"SELECT * FROM CHARACTER_SHEET",
		"complete nonsense",
	}
	for _, q := range cases {
		out := tool.Execute(ctx, map[string]any{"sql_query": q})
		assert.False(t, out.Success, "query %q", q)
		// The message must not leak the statement or the reason.
		assert.Equal(t, msgQueryFailed, out.Message, "query %q", q)
	}
}

func TestRegistry_ClosedSet(t *testing.T) {
	store := newTestLedger(t)
	reg := NewRegistry(store, testScope)

	for _, name := range []string{"get_obtained_item", "get_discarded_item", "get_item_info"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "missing tool %s", name)
	}

	_, ok := reg.Get("get_world_state")
	assert.False(t, ok)

	defs := reg.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "get_obtained_item", defs[0].Name)
}
