package storage

import (
	"strings"
	"testing"

	"item-warehouse/internal/model"
)

func sensorWarehouse() *model.Warehouse {
	return &model.Warehouse{
		Name:     "sensors",
		ItemName: "sensor",
		ItemSchema: model.NewItemSchema(
			model.ColumnDef{Key: "serial", Spec: model.ColumnSpec{Type: model.ColumnTypeInteger, PrimaryKey: true}},
			model.ColumnDef{Key: "site", Spec: model.ColumnSpec{Type: model.ColumnTypeString, Unique: true}},
			model.ColumnDef{Key: "note", Spec: model.ColumnSpec{Type: model.ColumnTypeText, Nullable: true}},
		),
	}
}

func sensorColumns() []columnInfo {
	return []columnInfo{
		{ColumnName: "serial", DataType: "bigint", ColumnKey: "PRI"},
		{ColumnName: "site", DataType: "varchar", ColumnKey: "UNI"},
		{ColumnName: "note", DataType: "text", ColumnKey: ""},
		{ColumnName: "created_at", DataType: "datetime", ColumnKey: ""},
	}
}

func TestDiffTableShapeMatch(t *testing.T) {
	if mismatch := diffTableShape(sensorWarehouse(), sensorColumns()); mismatch != "" {
		t.Errorf("Expected matching shapes, got mismatch: %s", mismatch)
	}
}

func TestDiffTableShapeTypeMismatch(t *testing.T) {
	existing := sensorColumns()
	existing[0].DataType = "text"

	mismatch := diffTableShape(sensorWarehouse(), existing)
	if mismatch == "" {
		t.Fatal("Expected a leftover table with same names but different types to conflict")
	}
	if !strings.Contains(mismatch, `"serial"`) || !strings.Contains(mismatch, "bigint") {
		t.Errorf("Expected mismatch to name the column and the declared type, got: %s", mismatch)
	}
}

func TestDiffTableShapeKeyMismatch(t *testing.T) {
	existing := sensorColumns()
	existing[1].ColumnKey = ""

	mismatch := diffTableShape(sensorWarehouse(), existing)
	if mismatch == "" {
		t.Fatal("Expected a table missing a unique key to conflict")
	}
	if !strings.Contains(mismatch, `"site"`) {
		t.Errorf("Expected mismatch to name the column, got: %s", mismatch)
	}
}

func TestDiffTableShapeMissingAndExtraColumns(t *testing.T) {
	existing := sensorColumns()
	existing[2] = columnInfo{ColumnName: "comment", DataType: "text"}

	mismatch := diffTableShape(sensorWarehouse(), existing)
	if !strings.Contains(mismatch, `missing column "note"`) {
		t.Errorf("Expected missing declared column to be reported, got: %s", mismatch)
	}
	if !strings.Contains(mismatch, `undeclared column "comment"`) {
		t.Errorf("Expected undeclared existing column to be reported, got: %s", mismatch)
	}
}

func TestDiffTableShapeCaseInsensitive(t *testing.T) {
	existing := sensorColumns()
	existing[0].DataType = "BIGINT"
	existing[0].ColumnKey = "pri"

	if mismatch := diffTableShape(sensorWarehouse(), existing); mismatch != "" {
		t.Errorf("Expected introspection casing to be ignored, got mismatch: %s", mismatch)
	}
}
