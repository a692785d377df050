package repository

import (
	"context"

	"item-warehouse/internal/model"
	"item-warehouse/internal/storage"
)

// WarehouseRepository persists the registry catalog: the one durable mapping
// from warehouse name to schema descriptor.
type WarehouseRepository interface {
	// Create registers a new warehouse; ErrWarehouseExists on name collision
	Create(ctx context.Context, warehouse *model.Warehouse) error

	// GetByName retrieves the current descriptor for a warehouse
	GetByName(ctx context.Context, name string) (*model.Warehouse, error)

	// List returns a page of warehouses ordered by created_at then name,
	// plus the total count of registered warehouses
	List(ctx context.Context, offset, limit int) ([]*model.Warehouse, int64, error)

	// Delete removes a warehouse's catalog entry
	Delete(ctx context.Context, name string) error
}

// ItemRepository is the generic CRUD and paginated-query engine. Every
// operation addresses storage through an opaque handle and receives the
// owning descriptor's column map; values are assumed to be already validated
// and coerced by the schema package.
type ItemRepository interface {
	// Insert persists a validated record and returns the stored item,
	// including any storage-assigned autoincrement value
	Insert(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, values map[string]interface{}) (model.Item, error)

	// Query returns a page of items matching the exact-match filters plus
	// the total count of matching items at call time
	Query(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, filters map[string]interface{}, page model.PageRequest) ([]model.Item, int64, error)

	// GetByKey fetches one item by its primary-key value(s)
	GetByKey(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key map[string]interface{}) (model.Item, error)

	// Update applies a validated partial update to the item with the given
	// key and returns the stored result
	Update(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key, patch map[string]interface{}) (model.Item, error)

	// Delete removes one item by primary key
	Delete(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key map[string]interface{}) error
}
