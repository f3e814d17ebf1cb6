// Package docstore defines the narrow document-store contract the shop
// depends on, with an Elasticsearch implementation and an in-memory one.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document version conflict")
)

// Version identifies the state of a document as observed at read time.
// Passing it back with an update makes the write conditional on the document
// being unchanged since that read.
type Version struct {
	SeqNo       int64
	PrimaryTerm int64
}

type Document struct {
	ID      string
	Source  json.RawMessage
	Version Version
}

// Store is the document-store client surface. Implementations must make
// IncrementCounter atomic: two concurrent calls never return the same value.
// All other operations are independent round trips with no cross-call
// atomicity guarantees.
type Store interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, mapping json.RawMessage) error

	GetDocument(ctx context.Context, index, id string) (Document, error)
	SearchMatch(ctx context.Context, index, field string, value any) ([]Document, error)
	SearchAll(ctx context.Context, index string) ([]Document, error)

	IndexDocument(ctx context.Context, index, id string, body any) error

	// UpdateDocument merges the fields of partial into the stored document.
	// With a non-nil version the write fails with ErrConflict when the
	// document changed since that version was read.
	UpdateDocument(ctx context.Context, index, id string, partial any, v *Version) error

	// IncrementCounter atomically increments the named integer field of the
	// document, creating it with value 1 when absent, and returns the
	// post-increment value.
	IncrementCounter(ctx context.Context, index, id, field string) (int64, error)

	DeleteDocument(ctx context.Context, index, id string) error
}
