package model

import "encoding/json"

// ColumnType is the closed set of logical types an item column may declare.
// Adding a type means adding a constant here plus one entry in the schema
// package's coercion table and the storage package's DDL table.
type ColumnType string

const (
	ColumnTypeInteger   ColumnType = "integer"
	ColumnTypeFloat     ColumnType = "float"
	ColumnTypeString    ColumnType = "string"
	ColumnTypeBoolean   ColumnType = "boolean"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeDate      ColumnType = "date"
	ColumnTypeText      ColumnType = "text"
	ColumnTypeJSON      ColumnType = "json"
)

// IsValidColumnType checks if a column type is part of the closed set
func IsValidColumnType(t ColumnType) bool {
	switch t {
	case ColumnTypeInteger, ColumnTypeFloat, ColumnTypeString, ColumnTypeBoolean,
		ColumnTypeTimestamp, ColumnTypeDate, ColumnTypeText, ColumnTypeJSON:
		return true
	default:
		return false
	}
}

// ColumnSpec declares one column of a warehouse's item schema
type ColumnSpec struct {
	Type          ColumnType             `json:"type"`
	TypeKwargs    map[string]interface{} `json:"type_kwargs,omitempty"`
	Nullable      bool                   `json:"nullable"`
	PrimaryKey    bool                   `json:"primary_key"`
	Unique        bool                   `json:"unique"`
	Index         bool                   `json:"index"`
	Autoincrement bool                   `json:"autoincrement"`
	Default       interface{}            `json:"default,omitempty"`
}

// StringLength returns the declared string length from TypeKwargs, or the
// default of 255 when none is declared. Only meaningful for ColumnTypeString.
// Schemas decoded from JSON carry the length as json.Number because the
// schema decoder runs with UseNumber.
func (cs ColumnSpec) StringLength() int {
	if raw, ok := cs.TypeKwargs["length"]; ok {
		switch v := raw.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return 255
}
