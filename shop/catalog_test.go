package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/docstore"
	"shopfront/ent"
)

func newTestCatalog(t *testing.T) (*docstore.Memory, *Catalog) {
	t.Helper()

	store := docstore.NewMemory()
	require.NoError(t, Bootstrap(context.Background(), store))

	return store, NewCatalog(store, NewAllocator(store))
}

func TestInsertThenGet(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	id, err := catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	p, err := catalog.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ent.Product{ProductID: id, Name: "Widget", Price: 100, Quantity: 5}, p)
}

func TestInsertDuplicateName(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	_, err := catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)

	_, err = catalog.Insert(ctx, "Widget", 200, 1)
	assert.ErrorIs(t, err, ErrConflict)

	ps, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestGetUnknown(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	_, err := catalog.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAmbiguousMatchIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, catalog := newTestCatalog(t)

	// Two documents claiming the same product_id: not usably found.
	p := ent.Product{ProductID: 7, Name: "Widget", Price: 100, Quantity: 5}
	require.NoError(t, store.IndexDocument(ctx, "shop_products", "7", p))
	require.NoError(t, store.IndexDocument(ctx, "shop_products", "7-dup", p))

	_, err := catalog.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	ps, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ps)

	_, err = catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)
	_, err = catalog.Insert(ctx, "Gadget", 250, 3)
	require.NoError(t, err)

	ps, err = catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestUpdatePartial(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	id, err := catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)

	price := int64(500)
	err = catalog.Update(ctx, id, ent.ProductPatch{Price: &price})
	require.NoError(t, err)

	p, err := catalog.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Price)
	assert.Equal(t, "Widget", p.Name, "omitted fields must be left untouched")
	assert.Equal(t, int64(5), p.Quantity, "omitted fields must be left untouched")
}

func TestUpdateUnknown(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	price := int64(500)
	err := catalog.Update(ctx, 42, ent.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	id, err := catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)

	require.NoError(t, catalog.Delete(ctx, id))

	_, err = catalog.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	err = catalog.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	id, err := catalog.Insert(ctx, "Widget", 100, 5)
	require.NoError(t, err)

	byName, err := catalog.ExistsByName(ctx, "Widget")
	require.NoError(t, err)
	assert.True(t, byName)

	byName, err = catalog.ExistsByName(ctx, "Sprocket")
	require.NoError(t, err)
	assert.False(t, byName)

	byID, err := catalog.ExistsByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, byID)

	byID, err = catalog.ExistsByID(ctx, id+1)
	require.NoError(t, err)
	assert.False(t, byID)
}

// The uniqueness check rides the same analyzed match query as search, so
// names sharing a token conflict on insert. Seed the store directly to get
// overlapping names in place.
func TestInsertRejectsTokenOverlap(t *testing.T) {
	ctx := context.Background()
	_, catalog := newTestCatalog(t)

	_, err := catalog.Insert(ctx, "Red Widget", 100, 5)
	require.NoError(t, err)

	_, err = catalog.Insert(ctx, "Blue Widget", 150, 2)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSearchByName(t *testing.T) {
	ctx := context.Background()
	store, catalog := newTestCatalog(t)

	seed := []ent.Product{
		{ProductID: 1, Name: "Red Widget", Price: 100, Quantity: 5},
		{ProductID: 2, Name: "Blue Widget", Price: 150, Quantity: 2},
		{ProductID: 3, Name: "Gadget", Price: 250, Quantity: 3},
	}
	for _, p := range seed {
		require.NoError(t, store.IndexDocument(ctx, "shop_products", productKey(p.ProductID), p))
	}

	ps, err := catalog.SearchByName(ctx, "widget")
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	ps, err = catalog.SearchByName(ctx, "sprocket")
	require.NoError(t, err)
	assert.Empty(t, ps)
}
