package storage

import (
	"fmt"
	"strings"

	"item-warehouse/internal/model"
)

// columnSQLType maps a logical column type to its MySQL column type
func columnSQLType(spec model.ColumnSpec) string {
	switch spec.Type {
	case model.ColumnTypeInteger:
		return "BIGINT"
	case model.ColumnTypeFloat:
		return "DOUBLE"
	case model.ColumnTypeString:
		return fmt.Sprintf("VARCHAR(%d)", spec.StringLength())
	case model.ColumnTypeBoolean:
		return "TINYINT(1)"
	case model.ColumnTypeTimestamp:
		return "DATETIME(6)"
	case model.ColumnTypeDate:
		return "DATE"
	case model.ColumnTypeText:
		return "TEXT"
	case model.ColumnTypeJSON:
		return "JSON"
	default:
		// Descriptor validation rejects unknown types before DDL is built
		return "TEXT"
	}
}

// quoteIdentifier backtick-quotes an already-validated identifier
func quoteIdentifier(name string) string {
	return "`" + name + "`"
}

// BuildCreateTable renders the CREATE TABLE statement implied by a warehouse
// descriptor. Defaults are applied at validation time rather than in DDL so
// an insert echo always shows the applied value.
func BuildCreateTable(w *model.Warehouse) string {
	itemSchema := w.ItemSchema
	primaryKey := itemSchema.PrimaryKey()
	solePK := len(primaryKey) == 1

	var defs []string
	for _, key := range itemSchema.Keys() {
		spec, _ := itemSchema.Get(key)

		def := quoteIdentifier(key) + " " + columnSQLType(spec)
		if !spec.Nullable {
			def += " NOT NULL"
		}
		if spec.Autoincrement {
			def += " AUTO_INCREMENT"
		}
		defs = append(defs, def)
	}

	defs = append(defs, quoteIdentifier(model.CreatedAtColumn)+" DATETIME(6) NOT NULL")

	quotedPK := make([]string, len(primaryKey))
	for i, key := range primaryKey {
		quotedPK[i] = quoteIdentifier(key)
	}
	defs = append(defs, "PRIMARY KEY ("+strings.Join(quotedPK, ", ")+")")

	for _, key := range itemSchema.Keys() {
		spec, _ := itemSchema.Get(key)
		switch {
		case spec.Unique && !(spec.PrimaryKey && solePK):
			defs = append(defs, fmt.Sprintf("UNIQUE KEY %s (%s)",
				quoteIdentifier("uq_"+w.Name+"_"+key), quoteIdentifier(key)))
		case spec.Index && !spec.PrimaryKey:
			defs = append(defs, fmt.Sprintf("KEY %s (%s)",
				quoteIdentifier("idx_"+w.Name+"_"+key), quoteIdentifier(key)))
		}
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		quoteIdentifier(w.Name), strings.Join(defs, ",\n  "))
}

// BuildDropTable renders the DROP TABLE statement for a warehouse
func BuildDropTable(name string) string {
	return "DROP TABLE IF EXISTS " + quoteIdentifier(name)
}
