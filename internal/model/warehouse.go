package model

import (
	"time"
)

// ReservedWarehouseName is the catalog's own table name; callers cannot claim it.
const ReservedWarehouseName = "warehouses"

// CreatedAtColumn is stamped by the store on every item at insert time.
// Callers cannot declare a column with this name.
const CreatedAtColumn = "created_at"

// Warehouse pairs one declared item schema with the physical table that
// stores its items. The descriptor is immutable after creation; the only
// lifecycle operations are create and drop.
type Warehouse struct {
	Name       string     `gorm:"size:64;primaryKey" json:"name"`
	ItemName   string     `gorm:"size:64;not null" json:"item_name"`
	ItemSchema ItemSchema `gorm:"type:json;not null" json:"item_schema"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the catalog table name for the Warehouse model
func (Warehouse) TableName() string {
	return ReservedWarehouseName
}

// Item is one record conforming to a warehouse's item schema
type Item map[string]interface{}
