// Package store defines the feature store contract consumed by the sync
// engine. Concrete clients live in the mysql and rest subpackages.
package store

import (
	"context"
	"fmt"

	"github.com/dbsmedya/featsync/internal/feature"
)

// Schema describes a store's addressable fields.
type Schema struct {
	// IDField is the store-assigned internal identifier field, distinct
	// from any caller-designated business unique-id field.
	IDField string

	// Fields lists the attribute field names in store order.
	Fields []string
}

// HasField reports whether name is part of the schema (id field included).
func (s *Schema) HasField(name string) bool {
	if name == s.IDField {
		return true
	}
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Store is the capability each collaborator exposes to the sync engine.
// Clients handle pagination, chunking, and retries internally; the engine
// issues one logical call per operation and propagates failures unchanged.
type Store interface {
	// Schema returns the store's field layout.
	Schema(ctx context.Context) (*Schema, error)

	// QueryAll fetches every record with the given fields, unrestricted
	// predicate. Result order is not guaranteed stable across calls.
	QueryAll(ctx context.Context, fields []string) ([]feature.Record, error)

	// InsertBatch inserts records, assigning fresh internal ids. The batch
	// fails as a unit on any row failure.
	InsertBatch(ctx context.Context, records []feature.Record) error

	// DeleteBatch deletes records by internal id. Deleting an already
	// absent id is not an error.
	DeleteBatch(ctx context.Context, ids []any) error
}

// FieldError is returned by clients when a requested field does not exist
// in the store's schema.
type FieldError struct {
	Field string
	Store string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q does not exist in %s store schema", e.Field, e.Store)
}
