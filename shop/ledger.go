package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shopfront/docstore"
	"shopfront/ent"
)

const purchasesIndex = "purchases"

// buyAttempts bounds the retry loop around the conditional decrement.
const buyAttempts = 5

// Outcome is the result of a buy that completed without a store failure.
type Outcome int

const (
	Bought Outcome = iota + 1
	NoSuchProduct
	InsufficientStock
)

// Ledger owns the purchase documents and the stock decrement that links a
// purchase to the catalog.
type Ledger struct {
	store docstore.Store
}

func NewLedger(store docstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Buy decrements the product's stock by quantity and records a purchase.
// The decrement is conditional on the version observed at lookup and is
// retried on conflict, so concurrent buys can never drive stock negative and
// every recorded purchase corresponds to exactly one applied decrement.
//
// A buy is accepted only while it leaves at least one unit in stock; an
// unknown or ambiguous product id and insufficient stock are reported as
// rejection outcomes, not errors.
func (l *Ledger) Buy(ctx context.Context, productID int64, customerID string, quantity int64) (Outcome, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("non-positive quantity %d", quantity)
	}

	for attempt := 0; attempt < buyAttempts; attempt++ {
		docs, err := l.store.SearchMatch(ctx, productsIndex, "product_id", productID)
		if err != nil {
			return 0, fmt.Errorf("look up product %d: %w", productID, err)
		}
		if len(docs) != 1 {
			return NoSuchProduct, nil
		}

		var p ent.Product
		if err := json.Unmarshal(docs[0].Source, &p); err != nil {
			return 0, fmt.Errorf("decode product %s: %w", docs[0].ID, err)
		}

		remaining := p.Quantity - quantity
		if remaining <= 0 {
			return InsufficientStock, nil
		}

		v := docs[0].Version
		err = l.store.UpdateDocument(ctx, productsIndex, docs[0].ID,
			ent.ProductPatch{Quantity: &remaining}, &v)
		if errors.Is(err, docstore.ErrConflict) {
			continue
		}
		if errors.Is(err, docstore.ErrNotFound) {
			return NoSuchProduct, nil
		}
		if err != nil {
			return 0, fmt.Errorf("decrement stock of product %d: %w", productID, err)
		}

		purchase := ent.Purchase{
			CustomerID: customerID,
			ProductID:  p.ProductID,
			Quantity:   quantity,
		}
		err = l.store.IndexDocument(ctx, purchasesIndex, uuid.NewString(), purchase)
		if err != nil {
			return 0, fmt.Errorf("record purchase: %w", err)
		}

		return Bought, nil
	}

	return 0, fmt.Errorf("buy product %d: gave up after %d conflicting writes", productID, buyAttempts)
}

func (l *Ledger) Purchases(ctx context.Context) ([]ent.Purchase, error) {
	docs, err := l.store.SearchAll(ctx, purchasesIndex)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	ps := make([]ent.Purchase, 0, len(docs))
	for _, doc := range docs {
		var p ent.Purchase
		if err := json.Unmarshal(doc.Source, &p); err != nil {
			return nil, fmt.Errorf("decode purchase %s: %w", doc.ID, err)
		}
		ps = append(ps, p)
	}

	return ps, nil
}
