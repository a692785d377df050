package service

import (
	"context"
	"sync"
	"testing"

	"item-warehouse/internal/model"
	"item-warehouse/internal/repository"
	"item-warehouse/internal/storage"
	"item-warehouse/internal/utils"
)

// fakeWarehouseRepo is an in-memory WarehouseRepository
type fakeWarehouseRepo struct {
	mu         sync.Mutex
	warehouses map[string]*model.Warehouse
	order      []string
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{warehouses: make(map[string]*model.Warehouse)}
}

func (r *fakeWarehouseRepo) Create(_ context.Context, w *model.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.warehouses[w.Name]; exists {
		return repository.ErrWarehouseExists
	}
	r.warehouses[w.Name] = w
	r.order = append(r.order, w.Name)
	return nil
}

func (r *fakeWarehouseRepo) GetByName(_ context.Context, name string) (*model.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[name]
	if !ok {
		return nil, repository.ErrWarehouseNotFound
	}
	return w, nil
}

func (r *fakeWarehouseRepo) List(_ context.Context, offset, limit int) ([]*model.Warehouse, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := int64(len(r.order))
	if offset >= len(r.order) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(r.order) {
		end = len(r.order)
	}
	var out []*model.Warehouse
	for _, name := range r.order[offset:end] {
		out = append(out, r.warehouses[name])
	}
	return out, total, nil
}

func (r *fakeWarehouseRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.warehouses[name]; !ok {
		return repository.ErrWarehouseNotFound
	}
	delete(r.warehouses, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeBinder is an in-memory StorageBinder
type fakeBinder struct {
	mu      sync.Mutex
	bound   map[string]bool
	bindErr error
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{bound: make(map[string]bool)}
}

func (b *fakeBinder) Bind(_ context.Context, w *model.Warehouse) error {
	if b.bindErr != nil {
		return b.bindErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound[w.Name] = true
	return nil
}

func (b *fakeBinder) Unbind(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bound, name)
	return nil
}

func (b *fakeBinder) Handle(_ context.Context, name string) (storage.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.bound[name] {
		return storage.Handle{}, utils.NewNotFoundError("warehouse " + name)
	}
	return storage.Handle{}, nil
}

func sensorRequest(name string) *CreateWarehouseRequest {
	return &CreateWarehouseRequest{
		Name:     name,
		ItemName: "sensor",
		ItemSchema: model.NewItemSchema(
			model.ColumnDef{Key: "serial", Spec: model.ColumnSpec{Type: model.ColumnTypeInteger, PrimaryKey: true}},
			model.ColumnDef{Key: "site", Spec: model.ColumnSpec{Type: model.ColumnTypeString, PrimaryKey: true}},
			model.ColumnDef{Key: "active", Spec: model.ColumnSpec{Type: model.ColumnTypeBoolean, Default: true}},
		),
	}
}

func newWarehouseFixture() (WarehouseService, *fakeWarehouseRepo, *fakeBinder) {
	repo := newFakeWarehouseRepo()
	binder := newFakeBinder()
	return NewWarehouseService(repo, binder, NewWarehouseGuard()), repo, binder
}

func TestCreateWarehouseRegistersAndBinds(t *testing.T) {
	svc, repo, binder := newWarehouseFixture()

	w, err := svc.CreateWarehouse(context.Background(), sensorRequest("sensors"))
	if err != nil {
		t.Fatalf("Failed to create warehouse: %v", err)
	}
	if w.Name != "sensors" {
		t.Errorf("Expected warehouse sensors, got %s", w.Name)
	}
	if _, ok := repo.warehouses["sensors"]; !ok {
		t.Error("Expected catalog entry after create")
	}
	if !binder.bound["sensors"] {
		t.Error("Expected storage to be bound after create")
	}
}

func TestCreateWarehouseDuplicate(t *testing.T) {
	svc, _, _ := newWarehouseFixture()

	if _, err := svc.CreateWarehouse(context.Background(), sensorRequest("sensors")); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := svc.CreateWarehouse(context.Background(), sensorRequest("sensors"))
	if err == nil {
		t.Fatal("Expected duplicate registration to fail")
	}
	if !utils.IsErrorType(err, utils.ErrCodeAlreadyExists) {
		t.Errorf("Expected ALREADY_EXISTS, got: %v", err)
	}
}

func TestCreateWarehouseInvalidDescriptor(t *testing.T) {
	svc, repo, _ := newWarehouseFixture()

	req := sensorRequest("sensors")
	req.ItemSchema = model.NewItemSchema(
		model.ColumnDef{Key: "value", Spec: model.ColumnSpec{Type: model.ColumnTypeFloat}},
	)

	_, err := svc.CreateWarehouse(context.Background(), req)
	if err == nil {
		t.Fatal("Expected descriptor without a primary key to be rejected")
	}
	if !utils.IsErrorType(err, utils.ErrCodeInvalidSchema) {
		t.Errorf("Expected INVALID_SCHEMA, got: %v", err)
	}
	if len(repo.warehouses) != 0 {
		t.Error("Expected no catalog entry after a rejected descriptor")
	}
}

func TestCreateWarehouseBindFailureCompensates(t *testing.T) {
	svc, repo, binder := newWarehouseFixture()
	binder.bindErr = utils.NewSchemaConflictError("sensors", "existing table has a different shape")

	_, err := svc.CreateWarehouse(context.Background(), sensorRequest("sensors"))
	if err == nil {
		t.Fatal("Expected create to fail when binding fails")
	}
	if !utils.IsErrorType(err, utils.ErrCodeSchemaConflict) {
		t.Errorf("Expected SCHEMA_CONFLICT, got: %v", err)
	}
	if len(repo.warehouses) != 0 {
		t.Error("Expected catalog entry to be removed after a failed bind")
	}
}

func TestGetWarehouseNotFound(t *testing.T) {
	svc, _, _ := newWarehouseFixture()

	_, err := svc.GetWarehouse(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected lookup of an unknown warehouse to fail")
	}
	if !utils.IsErrorType(err, utils.ErrCodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got: %v", err)
	}
}

func TestListWarehousesPagination(t *testing.T) {
	svc, _, _ := newWarehouseFixture()

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		if _, err := svc.CreateWarehouse(context.Background(), sensorRequest(name)); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	resp, err := svc.ListWarehouses(context.Background(), &ListWarehousesRequest{
		PageRequest: model.PageRequest{Limit: 2},
	})
	if err != nil {
		t.Fatalf("Failed to list warehouses: %v", err)
	}
	if resp.Count != 2 || resp.Total != 3 {
		t.Errorf("Expected count 2 of total 3, got %d of %d", resp.Count, resp.Total)
	}
	if resp.NextOffset == nil || *resp.NextOffset != 2 {
		t.Fatalf("Expected next offset 2, got %v", resp.NextOffset)
	}

	resp, err = svc.ListWarehouses(context.Background(), &ListWarehousesRequest{
		PageRequest: model.PageRequest{Offset: *resp.NextOffset, Limit: 2},
	})
	if err != nil {
		t.Fatalf("Failed to list second page: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected 1 warehouse on the last page, got %d", resp.Count)
	}
	if resp.NextOffset != nil {
		t.Errorf("Expected nil next offset on the last page, got %d", *resp.NextOffset)
	}
}

func TestDropWarehouse(t *testing.T) {
	svc, repo, binder := newWarehouseFixture()

	if _, err := svc.CreateWarehouse(context.Background(), sensorRequest("sensors")); err != nil {
		t.Fatalf("Failed to create warehouse: %v", err)
	}

	if err := svc.DropWarehouse(context.Background(), "sensors"); err != nil {
		t.Fatalf("Failed to drop warehouse: %v", err)
	}
	if len(repo.warehouses) != 0 {
		t.Error("Expected catalog entry removed after drop")
	}
	if binder.bound["sensors"] {
		t.Error("Expected storage unbound after drop")
	}

	err := svc.DropWarehouse(context.Background(), "sensors")
	if err == nil {
		t.Fatal("Expected dropping an absent warehouse to fail")
	}
	if !utils.IsErrorType(err, utils.ErrCodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got: %v", err)
	}
}
