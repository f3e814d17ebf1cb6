package shop

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"shopfront/docstore"
)

const (
	counterIndex = "product_counter"
	counterDocID = "counter"
	counterField = "counter"
)

// Allocator hands out product and customer identifiers.
type Allocator struct {
	store docstore.Store
}

func NewAllocator(store docstore.Store) *Allocator {
	return &Allocator{store: store}
}

// NextProductID returns a fresh product id from the singleton counter
// document. The increment runs store-side, so concurrent calls never observe
// the same value; ids start at 1 and survive restarts.
func (a *Allocator) NextProductID(ctx context.Context) (int64, error) {
	id, err := a.store.IncrementCounter(ctx, counterIndex, counterDocID, counterField)
	if err != nil {
		return 0, fmt.Errorf("increment product counter: %w", err)
	}

	return id, nil
}

// NewCustomerID returns an opaque 128-bit token as 32 hex characters.
// Collision probability is treated as negligible; no store lookup is made.
func NewCustomerID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
