package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"item-warehouse/internal/middleware"
	"item-warehouse/internal/model"
	"item-warehouse/internal/repository"
	"item-warehouse/internal/schema"
	"item-warehouse/internal/storage"
	"item-warehouse/internal/utils"
)

// ItemService runs every item operation against the registry's current
// descriptor: each call re-reads the descriptor, validates, then executes
// against the bound storage handle.
type ItemService interface {
	InsertItem(ctx context.Context, warehouse string, record map[string]interface{}) (model.Item, error)
	QueryItems(ctx context.Context, warehouse string, req *QueryItemsRequest) (*QueryItemsResponse, error)
	GetItem(ctx context.Context, warehouse string, rawKey []string) (model.Item, error)
	UpdateItem(ctx context.Context, warehouse string, rawKey []string, patch map[string]interface{}) (model.Item, error)
	DeleteItem(ctx context.Context, warehouse string, rawKey []string) error
}

type QueryItemsRequest struct {
	model.PageRequest
	// Filters holds raw exact-match predicates, column key → textual value,
	// coerced against the descriptor before reaching the repository
	Filters map[string]string
}

type QueryItemsResponse struct {
	Items      []model.Item `json:"items"`
	Count      int          `json:"count"`
	Offset     int          `json:"offset"`
	Limit      int          `json:"limit"`
	NextOffset *int         `json:"next_offset"`
	Total      int64        `json:"total"`
}

type itemService struct {
	warehouses repository.WarehouseRepository
	items      repository.ItemRepository
	binder     StorageBinder
	guard      *WarehouseGuard
}

// NewItemService creates a new instance of ItemService
func NewItemService(warehouses repository.WarehouseRepository, items repository.ItemRepository, binder StorageBinder, guard *WarehouseGuard) ItemService {
	return &itemService{
		warehouses: warehouses,
		items:      items,
		binder:     binder,
		guard:      guard,
	}
}

// withWarehouse resolves the current descriptor and storage handle under the
// warehouse's shared lock, so the operation cannot interleave with a drop
func (s *itemService) withWarehouse(ctx context.Context, name string, fn func(w *model.Warehouse, h storage.Handle) error) error {
	lock := s.guard.lockFor(name)
	lock.RLock()
	defer lock.RUnlock()

	warehouse, err := s.warehouses.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrWarehouseNotFound) {
			return utils.NewNotFoundError(fmt.Sprintf("warehouse %q", name))
		}
		return utils.NewStorageError(err, "failed to resolve warehouse")
	}

	handle, err := s.binder.Handle(ctx, name)
	if err != nil {
		return err
	}

	return fn(warehouse, handle)
}

func (s *itemService) InsertItem(ctx context.Context, warehouse string, record map[string]interface{}) (model.Item, error) {
	start := time.Now()
	var item model.Item
	err := s.withWarehouse(ctx, warehouse, func(w *model.Warehouse, h storage.Handle) error {
		values, err := schema.ValidateRecord(w.ItemSchema, record, false)
		if err != nil {
			return err
		}
		item, err = s.items.Insert(ctx, h, w.ItemSchema, values)
		return err
	})
	middleware.RecordItemOperation(warehouse, "insert", statusOf(err))
	middleware.ObserveItemOperation(warehouse, "insert", time.Since(start))
	if utils.IsErrorType(err, utils.ErrCodeConflict) {
		middleware.RecordItemConflict(warehouse)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) QueryItems(ctx context.Context, warehouse string, req *QueryItemsRequest) (*QueryItemsResponse, error) {
	start := time.Now()
	req.ApplyDefaults()

	var resp *QueryItemsResponse
	err := s.withWarehouse(ctx, warehouse, func(w *model.Warehouse, h storage.Handle) error {
		filters, err := parseFilters(w.ItemSchema, req.Filters)
		if err != nil {
			return err
		}

		items, total, err := s.items.Query(ctx, h, w.ItemSchema, filters, req.PageRequest)
		if err != nil {
			return err
		}

		resp = &QueryItemsResponse{
			Items:      items,
			Count:      len(items),
			Offset:     req.Offset,
			Limit:      req.Limit,
			NextOffset: model.NextOffset(req.Offset, len(items), total),
			Total:      total,
		}
		return nil
	})
	middleware.RecordItemOperation(warehouse, "query", statusOf(err))
	middleware.ObserveItemOperation(warehouse, "query", time.Since(start))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *itemService) GetItem(ctx context.Context, warehouse string, rawKey []string) (model.Item, error) {
	var item model.Item
	err := s.withWarehouse(ctx, warehouse, func(w *model.Warehouse, h storage.Handle) error {
		key, err := parseKey(w.ItemSchema, rawKey)
		if err != nil {
			return err
		}
		item, err = s.items.GetByKey(ctx, h, w.ItemSchema, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, warehouse string, rawKey []string, patch map[string]interface{}) (model.Item, error) {
	start := time.Now()
	var item model.Item
	err := s.withWarehouse(ctx, warehouse, func(w *model.Warehouse, h storage.Handle) error {
		key, err := parseKey(w.ItemSchema, rawKey)
		if err != nil {
			return err
		}
		values, err := schema.ValidateRecord(w.ItemSchema, patch, true)
		if err != nil {
			return err
		}
		item, err = s.items.Update(ctx, h, w.ItemSchema, key, values)
		return err
	})
	middleware.RecordItemOperation(warehouse, "update", statusOf(err))
	middleware.ObserveItemOperation(warehouse, "update", time.Since(start))
	if utils.IsErrorType(err, utils.ErrCodeConflict) {
		middleware.RecordItemConflict(warehouse)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) DeleteItem(ctx context.Context, warehouse string, rawKey []string) error {
	start := time.Now()
	err := s.withWarehouse(ctx, warehouse, func(w *model.Warehouse, h storage.Handle) error {
		key, err := parseKey(w.ItemSchema, rawKey)
		if err != nil {
			return err
		}
		return s.items.Delete(ctx, h, w.ItemSchema, key)
	})
	middleware.RecordItemOperation(warehouse, "delete", statusOf(err))
	middleware.ObserveItemOperation(warehouse, "delete", time.Since(start))
	return err
}

// parseKey coerces raw path values into a typed primary-key map. Composite
// keys arrive as one value per primary-key column, in declaration order.
func parseKey(itemSchema model.ItemSchema, rawKey []string) (map[string]interface{}, error) {
	pk := itemSchema.PrimaryKey()
	if len(rawKey) != len(pk) {
		return nil, utils.NewValidationError(
			fmt.Sprintf("expected %d primary-key value(s), got %d", len(pk), len(rawKey)), pk...)
	}

	key := make(map[string]interface{}, len(pk))
	for i, col := range pk {
		spec, _ := itemSchema.Get(col)
		v, err := schema.ParseKeyValue(spec, rawKey[i])
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("column %q: %v", col, err), col)
		}
		key[col] = v
	}
	return key, nil
}

// parseFilters coerces raw filter parameters against the descriptor; unknown
// columns are rejected, all of them reported
func parseFilters(itemSchema model.ItemSchema, raw map[string]string) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var problems []string
	var columns []string
	filters := make(map[string]interface{}, len(raw))

	for col, value := range raw {
		spec, ok := itemSchema.Get(col)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown filter column %q", col))
			columns = append(columns, col)
			continue
		}
		v, err := schema.ParseKeyValue(spec, value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("filter column %q: %v", col, err))
			columns = append(columns, col)
			continue
		}
		filters[col] = v
	}

	if len(problems) > 0 {
		return nil, utils.NewValidationError(strings.Join(problems, "; "), columns...)
	}
	return filters, nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
