package service

import (
	"context"
	"errors"
	"fmt"

	"item-warehouse/internal/model"
	"item-warehouse/internal/repository"
	"item-warehouse/internal/schema"
	"item-warehouse/internal/storage"
	"item-warehouse/internal/utils"
)

// StorageBinder is the slice of the storage binder the services depend on
type StorageBinder interface {
	Bind(ctx context.Context, warehouse *model.Warehouse) error
	Unbind(ctx context.Context, name string) error
	Handle(ctx context.Context, name string) (storage.Handle, error)
}

// WarehouseService owns the warehouse lifecycle: registration, lookup,
// listing, drop
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*model.Warehouse, error)
	GetWarehouse(ctx context.Context, name string) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, req *ListWarehousesRequest) (*ListWarehousesResponse, error)
	DropWarehouse(ctx context.Context, name string) error
}

type CreateWarehouseRequest struct {
	Name       string           `json:"name" validate:"required,min=1,max=64"`
	ItemName   string           `json:"item_name" validate:"required,min=1,max=64"`
	ItemSchema model.ItemSchema `json:"item_schema"`
}

type ListWarehousesRequest struct {
	model.PageRequest
}

type ListWarehousesResponse struct {
	Warehouses []*model.Warehouse `json:"warehouses"`
	Count      int                `json:"count"`
	Offset     int                `json:"offset"`
	Limit      int                `json:"limit"`
	NextOffset *int               `json:"next_offset"`
	Total      int64              `json:"total"`
}

type warehouseService struct {
	repo   repository.WarehouseRepository
	binder StorageBinder
	guard  *WarehouseGuard
}

// NewWarehouseService creates a new instance of WarehouseService
func NewWarehouseService(repo repository.WarehouseRepository, binder StorageBinder, guard *WarehouseGuard) WarehouseService {
	return &warehouseService{
		repo:   repo,
		binder: binder,
		guard:  guard,
	}
}

// CreateWarehouse registers a new warehouse and binds its physical storage.
// The catalog insert settles concurrent registration races (the name is the
// catalog primary key, so exactly one caller wins). DDL cannot join the
// catalog transaction on MySQL, so a failed bind compensates by deleting the
// registration, leaving no partial state behind.
func (s *warehouseService) CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*model.Warehouse, error) {
	warehouse := &model.Warehouse{
		Name:       req.Name,
		ItemName:   req.ItemName,
		ItemSchema: req.ItemSchema,
	}

	if err := schema.ValidateDescriptor(warehouse); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, warehouse); err != nil {
		if errors.Is(err, repository.ErrWarehouseExists) {
			return nil, utils.NewAlreadyExistsError(req.Name)
		}
		return nil, utils.NewStorageError(err, "failed to register warehouse")
	}

	if err := s.binder.Bind(ctx, warehouse); err != nil {
		_ = s.repo.Delete(ctx, warehouse.Name)
		return nil, err
	}

	return warehouse, nil
}

// GetWarehouse returns the current descriptor for a warehouse
func (s *warehouseService) GetWarehouse(ctx context.Context, name string) (*model.Warehouse, error) {
	warehouse, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrWarehouseNotFound) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("warehouse %q", name))
		}
		return nil, utils.NewStorageError(err, "failed to get warehouse")
	}
	return warehouse, nil
}

// ListWarehouses returns one page of registered warehouses
func (s *warehouseService) ListWarehouses(ctx context.Context, req *ListWarehousesRequest) (*ListWarehousesResponse, error) {
	req.ApplyDefaults()

	warehouses, total, err := s.repo.List(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, utils.NewStorageError(err, "failed to list warehouses")
	}

	return &ListWarehousesResponse{
		Warehouses: warehouses,
		Count:      len(warehouses),
		Offset:     req.Offset,
		Limit:      req.Limit,
		NextOffset: model.NextOffset(req.Offset, len(warehouses), total),
		Total:      total,
	}, nil
}

// DropWarehouse removes the descriptor and discards bound storage and every
// item. It holds the warehouse's exclusive lock for the whole operation so
// no item operation can interleave with the teardown.
func (s *warehouseService) DropWarehouse(ctx context.Context, name string) error {
	lock := s.guard.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.GetByName(ctx, name); err != nil {
		if errors.Is(err, repository.ErrWarehouseNotFound) {
			return utils.NewNotFoundError(fmt.Sprintf("warehouse %q", name))
		}
		return utils.NewStorageError(err, "failed to get warehouse")
	}

	if err := s.binder.Unbind(ctx, name); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, name); err != nil && !errors.Is(err, repository.ErrWarehouseNotFound) {
		return utils.NewStorageError(err, "failed to deregister warehouse")
	}

	return nil
}
