// Package feature contains the record and attribute-mapping types shared
// across the sync engine and store clients.
package feature

import (
	"bytes"
	"encoding/json"

	"github.com/elliotchance/orderedmap/v2"
)

// Record is one feature snapshot: an ordered set of named attributes.
// The store-assigned internal id, when present, is carried as a regular
// attribute under the store's id field name.
//
// Records fetched from a store are treated as immutable snapshots; every
// transformation in this codebase produces a new Record via Clone.
type Record struct {
	attrs *orderedmap.OrderedMap[string, any]
}

// NewRecord creates an empty record.
func NewRecord() Record {
	return Record{attrs: orderedmap.NewOrderedMap[string, any]()}
}

// Set stores an attribute value, appending the field at the end of the
// attribute order if it is new.
func (r Record) Set(field string, value any) {
	r.attrs.Set(field, value)
}

// Get returns the attribute value and whether the field is present.
func (r Record) Get(field string) (any, bool) {
	return r.attrs.Get(field)
}

// Delete removes an attribute. Removing an absent field is a no-op.
func (r Record) Delete(field string) {
	r.attrs.Delete(field)
}

// Has reports whether the field is present.
func (r Record) Has(field string) bool {
	_, ok := r.attrs.Get(field)
	return ok
}

// Fields returns the attribute names in insertion order.
func (r Record) Fields() []string {
	return r.attrs.Keys()
}

// Len returns the number of attributes.
func (r Record) Len() int {
	return r.attrs.Len()
}

// Clone returns an independent copy of the record. Attribute values are
// scalars and are copied by assignment.
func (r Record) Clone() Record {
	return Record{attrs: r.attrs.Copy()}
}

// MarshalJSON encodes the record as a JSON object, preserving attribute order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for el := r.attrs.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
