package shop

import (
	"context"
	"encoding/json"
	"fmt"

	"shopfront/docstore"
)

var productsMapping = json.RawMessage(`{
	"mappings": {
		"properties": {
			"product_id": {"type": "keyword"},
			"name":       {"type": "text"},
			"price":      {"type": "integer"},
			"quantity":   {"type": "integer"}
		}
	}
}`)

var purchasesMapping = json.RawMessage(`{
	"mappings": {
		"properties": {
			"customer_id": {"type": "text"},
			"product_id":  {"type": "integer"},
			"quantity":    {"type": "integer"}
		}
	}
}`)

// Bootstrap creates the product and purchase indices when absent. The counter
// document is not seeded here; the first increment upserts it.
func Bootstrap(ctx context.Context, store docstore.Store) error {
	indices := []struct {
		name    string
		mapping json.RawMessage
	}{
		{productsIndex, productsMapping},
		{purchasesIndex, purchasesMapping},
	}

	for _, idx := range indices {
		exists, err := store.IndexExists(ctx, idx.name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", idx.name, err)
		}
		if exists {
			continue
		}

		err = store.CreateIndex(ctx, idx.name, idx.mapping)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}
