// Package shop implements the storefront core: product catalog, purchase
// ledger and identifier allocation on top of a document store.
package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"shopfront/docstore"
	"shopfront/ent"
)

const productsIndex = "shop_products"

var (
	// ErrNotFound reports that no product with the given id exists. A
	// non-singular match count is treated the same as absence.
	ErrNotFound = errors.New("product not found")

	// ErrConflict reports an insert with an already-taken product name.
	ErrConflict = errors.New("product name already taken")
)

// Catalog owns the product documents. It is the sole writer of name and
// price; quantity is also decremented by the Ledger as purchases are made.
type Catalog struct {
	store docstore.Store
	alloc *Allocator
}

func NewCatalog(store docstore.Store, alloc *Allocator) *Catalog {
	return &Catalog{store: store, alloc: alloc}
}

// Insert creates a product under a freshly allocated id. The name-uniqueness
// check is a snapshot taken immediately before the write, not a lock: two
// concurrent inserts with the same name can both pass it.
func (c *Catalog) Insert(ctx context.Context, name string, price, quantity int64) (int64, error) {
	taken, err := c.ExistsByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrConflict
	}

	id, err := c.alloc.NextProductID(ctx)
	if err != nil {
		return 0, err
	}

	p := ent.Product{ProductID: id, Name: name, Price: price, Quantity: quantity}

	err = c.store.IndexDocument(ctx, productsIndex, productKey(id), p)
	if err != nil {
		return 0, fmt.Errorf("index product: %w", err)
	}

	return id, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (ent.Product, error) {
	docs, err := c.store.SearchMatch(ctx, productsIndex, "product_id", id)
	if err != nil {
		return ent.Product{}, fmt.Errorf("search product %d: %w", id, err)
	}
	if len(docs) != 1 {
		return ent.Product{}, ErrNotFound
	}

	return decodeProduct(docs[0])
}

func (c *Catalog) List(ctx context.Context) ([]ent.Product, error) {
	docs, err := c.store.SearchAll(ctx, productsIndex)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return decodeProducts(docs)
}

// Update merges the non-nil fields of patch into the stored product.
func (c *Catalog) Update(ctx context.Context, id int64, patch ent.ProductPatch) error {
	exists, err := c.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	err = c.store.UpdateDocument(ctx, productsIndex, productKey(id), patch, nil)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update product %d: %w", id, err)
	}

	return nil
}

// Delete removes the product unconditionally; outstanding purchases
// referencing it are left in place.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	exists, err := c.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	err = c.store.DeleteDocument(ctx, productsIndex, productKey(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	return nil
}

func (c *Catalog) ExistsByName(ctx context.Context, name string) (bool, error) {
	docs, err := c.store.SearchMatch(ctx, productsIndex, "name", name)
	if err != nil {
		return false, fmt.Errorf("search product by name: %w", err)
	}

	return len(docs) > 0, nil
}

func (c *Catalog) ExistsByID(ctx context.Context, id int64) (bool, error) {
	docs, err := c.store.SearchMatch(ctx, productsIndex, "product_id", id)
	if err != nil {
		return false, fmt.Errorf("search product %d: %w", id, err)
	}

	return len(docs) > 0, nil
}

func productKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeProduct(doc docstore.Document) (ent.Product, error) {
	var p ent.Product
	if err := json.Unmarshal(doc.Source, &p); err != nil {
		return ent.Product{}, fmt.Errorf("decode product %s: %w", doc.ID, err)
	}

	return p, nil
}

func decodeProducts(docs []docstore.Document) ([]ent.Product, error) {
	ps := make([]ent.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}

	return ps, nil
}
