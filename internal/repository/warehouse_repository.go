package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"item-warehouse/internal/model"
)

type warehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository creates a new instance of WarehouseRepository
func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

// Create registers a new warehouse. The catalog's primary key on name makes
// concurrent registration race-free: exactly one caller wins, the rest see
// ErrWarehouseExists.
func (r *warehouseRepository) Create(ctx context.Context, warehouse *model.Warehouse) error {
	if err := r.db.WithContext(ctx).Create(warehouse).Error; err != nil {
		if IsDuplicateEntry(err) {
			return ErrWarehouseExists
		}
		return fmt.Errorf("failed to create warehouse: %w", err)
	}
	return nil
}

// GetByName retrieves a warehouse descriptor by its name
func (r *warehouseRepository) GetByName(ctx context.Context, name string) (*model.Warehouse, error) {
	var warehouse model.Warehouse
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&warehouse)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWarehouseNotFound
		}
		return nil, result.Error
	}
	return &warehouse, nil
}

// List returns a page of warehouses in a stable order: created_at ascending,
// ties broken by name. Total is recomputed per call.
func (r *warehouseRepository) List(ctx context.Context, offset, limit int) ([]*model.Warehouse, int64, error) {
	var warehouses []*model.Warehouse
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Warehouse{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at ASC, name ASC").Limit(limit).Offset(offset).Find(&warehouses)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return warehouses, total, nil
}

// Delete removes a warehouse's catalog entry
func (r *warehouseRepository) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Warehouse{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWarehouseNotFound
	}
	return nil
}
