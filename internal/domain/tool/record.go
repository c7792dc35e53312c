package tool

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is a flat field→value row that keeps column order when marshalled.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// RecordFrom zips column names with values. Extra values are ignored.
func RecordFrom(columns []string, values []any) *Record {
	r := NewRecord()
	for i, c := range columns {
		if i < len(values) {
			r.Set(c, values[i])
		} else {
			r.Set(c, nil)
		}
	}
	return r
}

// Set stores a field, keeping its original position if it already exists.
func (r *Record) Set(key string, value any) *Record {
	r.fields.Set(key, value)
	return r
}

// Get returns a field value.
func (r *Record) Get(key string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string {
	if r == nil || r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Map returns an unordered copy of the fields.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	if r == nil || r.fields == nil {
		return out
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = p.Value
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.fields == nil {
		return []byte("null"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
	return r.fields.UnmarshalJSON(data)
}
