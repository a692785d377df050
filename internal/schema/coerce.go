package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"item-warehouse/internal/model"
	"item-warehouse/internal/utils"
)

// Accepted textual layouts for timestamp values, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

const dateLayout = "2006-01-02"

// coerceFunc validates one value against a column spec and returns the
// normalized representation handed to the store.
type coerceFunc func(spec model.ColumnSpec, v interface{}) (interface{}, error)

// coercers is the closed validate/coerce table. One entry per logical type;
// adding a type means adding a row here, not new dispatch logic elsewhere.
var coercers = map[model.ColumnType]coerceFunc{
	model.ColumnTypeInteger:   coerceInteger,
	model.ColumnTypeFloat:     coerceFloat,
	model.ColumnTypeString:    coerceString,
	model.ColumnTypeBoolean:   coerceBoolean,
	model.ColumnTypeTimestamp: coerceTimestamp,
	model.ColumnTypeDate:      coerceDate,
	model.ColumnTypeText:      coerceText,
	model.ColumnTypeJSON:      coerceJSON,
}

// CoerceValue validates v against spec and returns the value to persist
func CoerceValue(spec model.ColumnSpec, v interface{}) (interface{}, error) {
	fn, ok := coercers[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", spec.Type)
	}
	return fn(spec, v)
}

// ParseKeyValue converts a raw path/query string into a typed value for spec.
// Used for primary-key path segments and exact-match filter parameters.
func ParseKeyValue(spec model.ColumnSpec, raw string) (interface{}, error) {
	switch spec.Type {
	case model.ColumnTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", raw)
		}
		return n, nil
	case model.ColumnTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected float, got %q", raw)
		}
		return f, nil
	case model.ColumnTypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", raw)
		}
		return b, nil
	default:
		return CoerceValue(spec, raw)
	}
}

// ValidateRecord applies the write-validation algorithm to a record: unknown
// columns are rejected, absent columns fall back to defaults or null, present
// values are type-checked and coerced. With partial set (updates), absent
// columns are left untouched and primary-key columns cannot be patched.
// Every violated column is reported, not just the first.
func ValidateRecord(itemSchema model.ItemSchema, record map[string]interface{}, partial bool) (map[string]interface{}, error) {
	var problems []string
	var columns []string

	flag := func(key, format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf("column %q: ", key)+fmt.Sprintf(format, args...))
		columns = append(columns, key)
	}

	for key := range record {
		if _, ok := itemSchema.Get(key); !ok {
			flag(key, "unknown column")
		}
	}

	out := make(map[string]interface{}, itemSchema.Len())

	for _, key := range itemSchema.Keys() {
		spec, _ := itemSchema.Get(key)
		v, present := record[key]

		if !present {
			if partial || spec.Autoincrement {
				continue
			}
			if spec.Default != nil {
				coerced, err := CoerceValue(spec, spec.Default)
				if err != nil {
					flag(key, "default: %v", err)
					continue
				}
				out[key] = coerced
				continue
			}
			if spec.Nullable {
				out[key] = nil
				continue
			}
			flag(key, "required and has no default")
			continue
		}

		if partial && spec.PrimaryKey {
			flag(key, "primary-key columns cannot be updated")
			continue
		}
		if spec.Autoincrement {
			flag(key, "autoincrement values are assigned by storage")
			continue
		}

		if v == nil {
			if !spec.Nullable {
				flag(key, "cannot be null")
				continue
			}
			out[key] = nil
			continue
		}

		coerced, err := CoerceValue(spec, v)
		if err != nil {
			flag(key, "%v", err)
			continue
		}
		out[key] = coerced
	}

	if len(problems) > 0 {
		return nil, utils.NewValidationError(strings.Join(problems, "; "), dedupe(columns)...)
	}
	return out, nil
}

func coerceInteger(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func coerceFloat(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected float, got %v", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected float, got %T", v)
	}
}

func coerceString(spec model.ColumnSpec, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	if max := spec.StringLength(); utf8.RuneCountInString(s) > max {
		return nil, fmt.Errorf("string exceeds maximum length %d", max)
	}
	return s, nil
}

func coerceBoolean(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
	return b, nil
}

func coerceTimestamp(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return nil, fmt.Errorf("expected RFC 3339 timestamp, got %q", t)
	default:
		return nil, fmt.Errorf("expected timestamp, got %T", v)
	}
}

func coerceDate(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateLayout), nil
	case string:
		if _, err := time.Parse(dateLayout, t); err != nil {
			return nil, fmt.Errorf("expected date in %s form, got %q", dateLayout, t)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("expected date, got %T", v)
	}
}

func coerceText(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func coerceJSON(_ model.ColumnSpec, v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-serializable: %v", err)
	}
	return string(raw), nil
}
