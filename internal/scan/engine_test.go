package scan

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/internal/catalog"
	"github.com/mconcas/pantrybot-backend/internal/inventory"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	names    map[string]catalog.Resolution
	failures map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, barcode string) (catalog.Resolution, error) {
	if err, ok := f.failures[barcode]; ok {
		return catalog.Resolution{}, err
	}
	if res, ok := f.names[barcode]; ok {
		return res, nil
	}
	return catalog.Resolution{
		Barcode: barcode,
		Name:    catalog.PlaceholderName(barcode),
		Source:  catalog.SourcePlaceholder,
	}, nil
}

type fakeInventory struct {
	added   []inventory.AddItemParams
	stock   map[string]int // barcode -> units available for removal
	addErr  error
	removed []string
}

func (f *fakeInventory) AddItem(_ context.Context, params inventory.AddItemParams) (uuid.UUID, error) {
	if f.addErr != nil {
		return uuid.Nil, f.addErr
	}
	f.added = append(f.added, params)
	return uuid.New(), nil
}

func (f *fakeInventory) DeleteOneUnit(_ context.Context, _ int64, barcode, _ string) (bool, error) {
	if f.stock[barcode] <= 0 {
		return false, nil
	}
	f.stock[barcode]--
	f.removed = append(f.removed, barcode)
	return true, nil
}

func newTestEngine(t *testing.T, inv *fakeInventory, resolver *fakeResolver) *Engine {
	t.Helper()

	engine, err := NewEngine(EngineParams{
		Inventory: inv,
		Resolver:  resolver,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return engine
}

func TestEngineReconcile_addBatch(t *testing.T) {
	inv := &fakeInventory{}
	resolver := &fakeResolver{
		names: map[string]catalog.Resolution{
			"111": {Barcode: "111", Name: "Oat Milk", Verified: true, Source: catalog.SourceCache},
			"222": {Barcode: "222", Name: "Nutella (Ferrero)", Source: catalog.SourceRemote},
		},
	}
	engine := newTestEngine(t, inv, resolver)

	batch := Batch{Mode: ModeAdd, Scans: []Scan{{Code: "111"}, {Code: "222"}, {Code: "333"}}}
	summary, err := engine.Reconcile(context.Background(), 42, batch, "Pantry")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Added)
	assert.Equal(t, 2, summary.Unverified)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Results, 3)

	assert.Equal(t, "Oat Milk", summary.Results[0].Name)
	assert.True(t, summary.Results[0].Verified)
	assert.Equal(t, "Unknown (333)", summary.Results[2].Name)

	require.Len(t, inv.added, 3)
	for _, params := range inv.added {
		assert.Equal(t, int64(42), params.OwnerID)
		assert.Equal(t, "Pantry", params.Category)
		assert.Equal(t, 1, params.Quantity)
	}
	assert.True(t, inv.added[0].Verified)
	assert.False(t, inv.added[1].Verified)
}

func TestEngineReconcile_removeBatch(t *testing.T) {
	inv := &fakeInventory{stock: map[string]int{"111": 1}}
	engine := newTestEngine(t, inv, &fakeResolver{})

	batch := Batch{Mode: ModeRemove, Scans: []Scan{{Code: "111"}, {Code: "111"}, {Code: "999"}}}
	summary, err := engine.Reconcile(context.Background(), 42, batch, "Fridge")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 2, summary.NotFound)
	assert.Equal(t, []string{"111"}, inv.removed)
	assert.Equal(t, OutcomeRemoved, summary.Results[0].Outcome)
	assert.Equal(t, OutcomeNotFound, summary.Results[1].Outcome)
}

func TestEngineReconcile_failuresDoNotAbortBatch(t *testing.T) {
	inv := &fakeInventory{}
	resolver := &fakeResolver{
		names:    map[string]catalog.Resolution{"222": {Barcode: "222", Name: "Beans"}},
		failures: map[string]error{"111": errors.New("store unavailable")},
	}
	engine := newTestEngine(t, inv, resolver)

	batch := Batch{Mode: ModeAdd, Scans: []Scan{{Code: "111"}, {Code: "222"}}}
	summary, err := engine.Reconcile(context.Background(), 42, batch, "Pantry")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, OutcomeFailed, summary.Results[0].Outcome)
	assert.Equal(t, OutcomeAdded, summary.Results[1].Outcome)
}

func TestEngineReconcile_requiresCategory(t *testing.T) {
	engine := newTestEngine(t, &fakeInventory{}, &fakeResolver{})
	_, err := engine.Reconcile(context.Background(), 42, Batch{Mode: ModeAdd}, "")
	require.Error(t, err)
}
