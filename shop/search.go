package shop

import (
	"context"
	"fmt"

	"shopfront/ent"
)

// SearchByName runs a match query against product names and returns the
// public projection of every hit. Whatever the store's analyzer considers a
// match is returned; there is no exact-substring guarantee.
func (c *Catalog) SearchByName(ctx context.Context, name string) ([]ent.Product, error) {
	docs, err := c.store.SearchMatch(ctx, productsIndex, "name", name)
	if err != nil {
		return nil, fmt.Errorf("search products by name: %w", err)
	}

	return decodeProducts(docs)
}
