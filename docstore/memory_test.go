package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func TestMemoryIndexGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.IndexDocument(ctx, "things", "1", widget{Name: "Widget", Price: 100})
	require.NoError(t, err)

	doc, err := m.GetDocument(ctx, "things", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", doc.ID)

	var w widget
	require.NoError(t, json.Unmarshal(doc.Source, &w))
	assert.Equal(t, widget{Name: "Widget", Price: 100}, w)

	require.NoError(t, m.DeleteDocument(ctx, "things", "1"))

	_, err = m.GetDocument(ctx, "things", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.DeleteDocument(ctx, "things", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPartialUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.IndexDocument(ctx, "things", "1", widget{Name: "Widget", Price: 100}))

	err := m.UpdateDocument(ctx, "things", "1", map[string]any{"price": 500}, nil)
	require.NoError(t, err)

	doc, err := m.GetDocument(ctx, "things", "1")
	require.NoError(t, err)

	var w widget
	require.NoError(t, json.Unmarshal(doc.Source, &w))
	assert.Equal(t, "Widget", w.Name, "untouched field must survive the merge")
	assert.Equal(t, int64(500), w.Price)

	err = m.UpdateDocument(ctx, "things", "2", map[string]any{"price": 1}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.IndexDocument(ctx, "things", "1", widget{Name: "Widget", Price: 100}))

	doc, err := m.GetDocument(ctx, "things", "1")
	require.NoError(t, err)

	stale := doc.Version

	// A write after the read invalidates the observed version.
	require.NoError(t, m.UpdateDocument(ctx, "things", "1", map[string]any{"price": 200}, nil))

	err = m.UpdateDocument(ctx, "things", "1", map[string]any{"price": 300}, &stale)
	assert.ErrorIs(t, err, ErrConflict)

	doc, err = m.GetDocument(ctx, "things", "1")
	require.NoError(t, err)

	err = m.UpdateDocument(ctx, "things", "1", map[string]any{"price": 300}, &doc.Version)
	assert.NoError(t, err)
}

func TestMemorySearchMatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.IndexDocument(ctx, "things", "1", widget{Name: "Red Widget", Price: 100}))
	require.NoError(t, m.IndexDocument(ctx, "things", "2", widget{Name: "Blue Widget", Price: 200}))
	require.NoError(t, m.IndexDocument(ctx, "things", "3", widget{Name: "Gadget", Price: 300}))

	docs, err := m.SearchMatch(ctx, "things", "name", "widget")
	require.NoError(t, err)
	assert.Len(t, docs, 2, "match is token-based and case-insensitive")

	docs, err = m.SearchMatch(ctx, "things", "price", 300)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "3", docs[0].ID)

	docs, err = m.SearchMatch(ctx, "things", "name", "Sprocket")
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = m.SearchAll(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestMemoryIncrementCounter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.IncrementCounter(ctx, "counters", "c", "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "upsert seeds the counter at 1")

	n, err = m.IncrementCounter(ctx, "counters", "c", "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryIncrementCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const calls = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := m.IncrementCounter(ctx, "counters", "c", "counter")
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, calls, "every call must observe a distinct value")
	for i := int64(1); i <= calls; i++ {
		assert.True(t, seen[i], "value %d missing", i)
	}
}

func TestMemoryCreateIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	exists, err := m.IndexExists(ctx, "things")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.CreateIndex(ctx, "things", json.RawMessage(`{}`)))

	exists, err = m.IndexExists(ctx, "things")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, m.CreateIndex(ctx, "things", json.RawMessage(`{}`)))
}
