package storage

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"item-warehouse/internal/model"
	"item-warehouse/internal/schema"
	"item-warehouse/internal/utils"
)

// Handle is an opaque reference to one warehouse's bound table. The item
// repository addresses storage exclusively through handles so it stays
// independent of how descriptors map to physical tables.
type Handle struct {
	table string
}

// Table returns the physical table name behind the handle
func (h Handle) Table() string {
	return h.table
}

// Binder translates schema descriptors into physical MySQL tables: columns
// become typed fields, primary-key/unique/index flags become the equivalent
// table constraints.
type Binder struct {
	db *gorm.DB
}

// NewBinder creates a Binder over the shared database connection
func NewBinder(db *gorm.DB) *Binder {
	return &Binder{db: db}
}

// Bind creates the physical table implied by the descriptor. Binding an
// already-bound descriptor with an unchanged shape is a no-op; an existing
// table whose columns, types or keys differ fails with SCHEMA_CONFLICT.
func (b *Binder) Bind(ctx context.Context, w *model.Warehouse) error {
	if !schema.IsValidIdentifier(w.Name) {
		return utils.NewInvalidSchemaError(fmt.Sprintf("warehouse name %q is not a valid identifier", w.Name))
	}

	if b.db.Migrator().HasTable(w.Name) {
		existing, err := b.tableColumns(ctx, w.Name)
		if err != nil {
			return utils.NewStorageError(err, "failed to introspect existing table")
		}

		if mismatch := diffTableShape(w, existing); mismatch != "" {
			return utils.NewSchemaConflictError(w.Name, mismatch)
		}
		return nil
	}

	if err := b.db.WithContext(ctx).Exec(BuildCreateTable(w)).Error; err != nil {
		return utils.NewStorageError(err, fmt.Sprintf("failed to create table for warehouse %q", w.Name))
	}
	return nil
}

// Unbind physically deletes the warehouse's table and every contained item.
// Irreversible.
func (b *Binder) Unbind(ctx context.Context, name string) error {
	if !schema.IsValidIdentifier(name) {
		return utils.NewNotFoundError(fmt.Sprintf("warehouse %q", name))
	}
	if err := b.db.WithContext(ctx).Exec(BuildDropTable(name)).Error; err != nil {
		return utils.NewStorageError(err, fmt.Sprintf("failed to drop table for warehouse %q", name))
	}
	return nil
}

// Handle returns the opaque storage reference for a bound warehouse
func (b *Binder) Handle(ctx context.Context, name string) (Handle, error) {
	if !schema.IsValidIdentifier(name) || !b.db.WithContext(ctx).Migrator().HasTable(name) {
		return Handle{}, utils.NewNotFoundError(fmt.Sprintf("storage for warehouse %q", name))
	}
	return Handle{table: name}, nil
}

// columnInfo is one row of information_schema.columns for a bound table
type columnInfo struct {
	ColumnName string
	DataType   string
	ColumnKey  string
}

// tableColumns introspects name, base type and key kind of every column of
// an existing table
func (b *Binder) tableColumns(ctx context.Context, table string) ([]columnInfo, error) {
	var columns []columnInfo
	err := b.db.WithContext(ctx).Raw(
		"SELECT column_name, data_type, column_key FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position",
		table,
	).Scan(&columns).Error
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// diffTableShape compares an existing table against a descriptor, column by
// column: names, base types and key kinds must all line up. Returns "" when
// the shapes match, otherwise a description of every mismatch.
func diffTableShape(w *model.Warehouse, existing []columnInfo) string {
	byName := make(map[string]columnInfo, len(existing))
	for _, col := range existing {
		byName[strings.ToLower(col.ColumnName)] = col
	}

	declared := make(map[string]struct{}, w.ItemSchema.Len()+1)
	var problems []string

	check := func(name, wantType, wantKey string) {
		declared[name] = struct{}{}
		col, ok := byName[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("existing table is missing column %q", name))
			return
		}
		if !strings.EqualFold(col.DataType, wantType) {
			problems = append(problems, fmt.Sprintf("column %q has type %s, declared type maps to %s",
				name, strings.ToLower(col.DataType), wantType))
		}
		if !strings.EqualFold(col.ColumnKey, wantKey) {
			problems = append(problems, fmt.Sprintf("column %q has key %q, expected %q",
				name, strings.ToUpper(col.ColumnKey), wantKey))
		}
	}

	for _, key := range w.ItemSchema.Keys() {
		spec, _ := w.ItemSchema.Get(key)
		check(key, mysqlDataType(spec.Type), expectedColumnKey(spec))
	}
	check(model.CreatedAtColumn, "datetime", "")

	for _, col := range existing {
		if _, ok := declared[strings.ToLower(col.ColumnName)]; !ok {
			problems = append(problems, fmt.Sprintf("existing table has undeclared column %q", col.ColumnName))
		}
	}

	return strings.Join(problems, "; ")
}

// mysqlDataType is the information_schema.columns data_type the DDL table
// produces for each logical type
func mysqlDataType(t model.ColumnType) string {
	switch t {
	case model.ColumnTypeInteger:
		return "bigint"
	case model.ColumnTypeFloat:
		return "double"
	case model.ColumnTypeString:
		return "varchar"
	case model.ColumnTypeBoolean:
		return "tinyint"
	case model.ColumnTypeTimestamp:
		return "datetime"
	case model.ColumnTypeDate:
		return "date"
	case model.ColumnTypeText:
		return "text"
	case model.ColumnTypeJSON:
		return "json"
	default:
		return "text"
	}
}

// expectedColumnKey mirrors MySQL's column_key reporting: PRI wins over UNI,
// UNI over MUL
func expectedColumnKey(spec model.ColumnSpec) string {
	switch {
	case spec.PrimaryKey:
		return "PRI"
	case spec.Unique:
		return "UNI"
	case spec.Index:
		return "MUL"
	default:
		return ""
	}
}
