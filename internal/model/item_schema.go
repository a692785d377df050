package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ItemSchema is an ordered mapping from column key to ColumnSpec. Order is the
// caller's declaration order and is preserved through JSON and through the
// catalog's JSON column, because composite primary keys sort items by
// declaration order.
type ItemSchema struct {
	keys  []string
	specs map[string]ColumnSpec
}

// ColumnDef is one (key, spec) pair used to build an ItemSchema in code.
type ColumnDef struct {
	Key  string
	Spec ColumnSpec
}

// NewItemSchema builds a schema from (key, spec) pairs in order.
func NewItemSchema(pairs ...ColumnDef) ItemSchema {
	s := ItemSchema{specs: make(map[string]ColumnSpec, len(pairs))}
	for _, p := range pairs {
		s.Set(p.Key, p.Spec)
	}
	return s
}

// Len returns the number of declared columns
func (s ItemSchema) Len() int {
	return len(s.keys)
}

// Keys returns the column keys in declaration order
func (s ItemSchema) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the spec for a column key
func (s ItemSchema) Get(key string) (ColumnSpec, bool) {
	spec, ok := s.specs[key]
	return spec, ok
}

// Set adds or replaces a column, preserving first-seen order
func (s *ItemSchema) Set(key string, spec ColumnSpec) {
	if s.specs == nil {
		s.specs = make(map[string]ColumnSpec)
	}
	if _, exists := s.specs[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.specs[key] = spec
}

// PrimaryKey returns the primary-key column keys in declaration order
func (s ItemSchema) PrimaryKey() []string {
	var pk []string
	for _, k := range s.keys {
		if s.specs[k].PrimaryKey {
			pk = append(pk, k)
		}
	}
	return pk
}

// AutoincrementColumn returns the autoincrement column key, if any
func (s ItemSchema) AutoincrementColumn() (string, bool) {
	for _, k := range s.keys {
		if s.specs[k].Autoincrement {
			return k, true
		}
	}
	return "", false
}

// MarshalJSON emits the columns as a JSON object in declaration order
func (s ItemSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		spec, err := json.Marshal(s.specs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(spec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. Duplicate keys are
// rejected rather than silently last-writer-wins.
func (s *ItemSchema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("item_schema must be a JSON object")
	}

	s.keys = nil
	s.specs = make(map[string]ColumnSpec)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		if _, exists := s.specs[key]; exists {
			return fmt.Errorf("duplicate column %q in item_schema", key)
		}

		var spec ColumnSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}

		s.keys = append(s.keys, key)
		s.specs[key] = spec
	}

	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Value implements driver.Valuer interface for GORM
func (s ItemSchema) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM
func (s *ItemSchema) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ItemSchema", value)
	}

	return json.Unmarshal(raw, s)
}
