package schema

import (
	"fmt"
	"regexp"
	"strings"

	"item-warehouse/internal/model"
	"item-warehouse/internal/utils"
)

// identifierPattern bounds every name that can reach SQL text as an
// identifier. Values never travel this path; they are always placeholders.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// IsValidIdentifier reports whether name is usable as a table or column name
func IsValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ValidateDescriptor checks every declaration invariant of a warehouse
// descriptor. All violations are collected and reported together as a single
// INVALID_SCHEMA error naming the offending columns, never just the first.
func ValidateDescriptor(w *model.Warehouse) error {
	var problems []string
	var columns []string

	if !IsValidIdentifier(w.Name) {
		problems = append(problems, fmt.Sprintf("warehouse name %q is not a valid identifier", w.Name))
	}
	if w.Name == model.ReservedWarehouseName {
		problems = append(problems, fmt.Sprintf("warehouse name %q is reserved", w.Name))
	}
	if w.ItemName == "" {
		problems = append(problems, "item_name is required")
	}
	if w.ItemSchema.Len() == 0 {
		problems = append(problems, "item_schema must declare at least one column")
	}

	primaryKeys := 0
	autoincrements := 0

	for _, key := range w.ItemSchema.Keys() {
		spec, _ := w.ItemSchema.Get(key)

		flag := func(format string, args ...interface{}) {
			problems = append(problems, fmt.Sprintf(format, args...))
			columns = append(columns, key)
		}

		if !IsValidIdentifier(key) {
			flag("column %q is not a valid identifier", key)
			continue
		}
		if key == model.CreatedAtColumn {
			flag("column name %q is reserved", key)
			continue
		}

		if !model.IsValidColumnType(spec.Type) {
			flag("column %q has unknown type %q", key, spec.Type)
			continue
		}

		if err := validateTypeKwargs(spec); err != nil {
			flag("column %q: %v", key, err)
		}

		if spec.PrimaryKey {
			primaryKeys++
			if spec.Nullable {
				flag("primary-key column %q cannot be nullable", key)
			}
		}

		if spec.Autoincrement {
			autoincrements++
			if spec.Type != model.ColumnTypeInteger {
				flag("autoincrement column %q must have type integer", key)
			}
			if !spec.PrimaryKey {
				flag("autoincrement column %q must be a primary key", key)
			}
			if spec.Default != nil {
				flag("autoincrement column %q cannot declare a default", key)
			}
		}

		if spec.Default != nil {
			if _, err := CoerceValue(spec, spec.Default); err != nil {
				flag("column %q default: %v", key, err)
			}
		}
	}

	if w.ItemSchema.Len() > 0 && primaryKeys == 0 {
		problems = append(problems, "item_schema must declare at least one primary-key column")
	}
	if autoincrements > 1 {
		problems = append(problems, "item_schema may declare at most one autoincrement column")
	}

	if len(problems) > 0 {
		return utils.NewInvalidSchemaError(strings.Join(problems, "; "), dedupe(columns)...)
	}
	return nil
}

// validateTypeKwargs checks type-specific parameters against the column type
func validateTypeKwargs(spec model.ColumnSpec) error {
	switch spec.Type {
	case model.ColumnTypeString:
		for k := range spec.TypeKwargs {
			if k != "length" {
				return fmt.Errorf("unknown type_kwargs key %q for type string", k)
			}
		}
		if _, ok := spec.TypeKwargs["length"]; ok {
			length := spec.StringLength()
			if length < 1 || length > 65535 {
				return fmt.Errorf("string length must be between 1 and 65535, got %d", length)
			}
		}
	default:
		if len(spec.TypeKwargs) > 0 {
			return fmt.Errorf("type %q takes no type_kwargs", spec.Type)
		}
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
