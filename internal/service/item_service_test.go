package service

import (
	"context"
	"testing"

	"item-warehouse/internal/model"
	"item-warehouse/internal/storage"
	"item-warehouse/internal/utils"
)

// fakeItemRepo records the typed values the service hands to it and serves
// canned pages back
type fakeItemRepo struct {
	items []model.Item
	total int64

	lastInsert  map[string]interface{}
	lastFilters map[string]interface{}
	lastKey     map[string]interface{}
	lastPatch   map[string]interface{}
}

func (r *fakeItemRepo) Insert(_ context.Context, _ storage.Handle, _ model.ItemSchema, values map[string]interface{}) (model.Item, error) {
	r.lastInsert = values
	return model.Item(values), nil
}

func (r *fakeItemRepo) Query(_ context.Context, _ storage.Handle, _ model.ItemSchema, filters map[string]interface{}, page model.PageRequest) ([]model.Item, int64, error) {
	r.lastFilters = filters
	if page.Offset >= len(r.items) {
		return nil, r.total, nil
	}
	end := page.Offset + page.Limit
	if end > len(r.items) {
		end = len(r.items)
	}
	return r.items[page.Offset:end], r.total, nil
}

func (r *fakeItemRepo) GetByKey(_ context.Context, _ storage.Handle, _ model.ItemSchema, key map[string]interface{}) (model.Item, error) {
	r.lastKey = key
	if len(r.items) == 0 {
		return nil, utils.NewNotFoundError("item")
	}
	return r.items[0], nil
}

func (r *fakeItemRepo) Update(_ context.Context, _ storage.Handle, _ model.ItemSchema, key, patch map[string]interface{}) (model.Item, error) {
	r.lastKey = key
	r.lastPatch = patch
	if len(r.items) == 0 {
		return nil, utils.NewNotFoundError("item")
	}
	return r.items[0], nil
}

func (r *fakeItemRepo) Delete(_ context.Context, _ storage.Handle, _ model.ItemSchema, key map[string]interface{}) error {
	r.lastKey = key
	if len(r.items) == 0 {
		return utils.NewNotFoundError("item")
	}
	return nil
}

func newItemFixture(t *testing.T) (ItemService, *fakeItemRepo) {
	t.Helper()

	warehouseRepo := newFakeWarehouseRepo()
	binder := newFakeBinder()
	guard := NewWarehouseGuard()

	warehouseSvc := NewWarehouseService(warehouseRepo, binder, guard)
	if _, err := warehouseSvc.CreateWarehouse(context.Background(), sensorRequest("sensors")); err != nil {
		t.Fatalf("Failed to register fixture warehouse: %v", err)
	}

	itemRepo := &fakeItemRepo{}
	return NewItemService(warehouseRepo, itemRepo, binder, guard), itemRepo
}

func TestInsertItemAppliesDefaults(t *testing.T) {
	svc, repo := newItemFixture(t)

	item, err := svc.InsertItem(context.Background(), "sensors", map[string]interface{}{
		"serial": 7,
		"site":   "berlin",
	})
	if err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}

	if repo.lastInsert["active"] != true {
		t.Errorf("Expected default true for active, got %v", repo.lastInsert["active"])
	}
	if repo.lastInsert["serial"] != int64(7) {
		t.Errorf("Expected serial coerced to int64, got %T", repo.lastInsert["serial"])
	}
	if item["site"] != "berlin" {
		t.Errorf("Expected site berlin in the echoed item, got %v", item["site"])
	}
}

func TestInsertItemUnknownWarehouse(t *testing.T) {
	svc, _ := newItemFixture(t)

	_, err := svc.InsertItem(context.Background(), "missing", map[string]interface{}{"serial": 1})
	if err == nil {
		t.Fatal("Expected insert into an unknown warehouse to fail")
	}
	if !utils.IsErrorType(err, utils.ErrCodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got: %v", err)
	}
}

func TestInsertItemRejectsUnknownColumn(t *testing.T) {
	svc, _ := newItemFixture(t)

	_, err := svc.InsertItem(context.Background(), "sensors", map[string]interface{}{
		"serial":   1,
		"site":     "oslo",
		"firmware": "v2",
	})
	if err == nil {
		t.Fatal("Expected unknown column to be rejected")
	}
	if !utils.IsErrorType(err, utils.ErrCodeValidationFailed) {
		t.Errorf("Expected VALIDATION_ERROR, got: %v", err)
	}
}

func TestQueryItemsPagination(t *testing.T) {
	svc, repo := newItemFixture(t)
	repo.items = []model.Item{
		{"serial": int64(1), "site": "a"},
		{"serial": int64(2), "site": "b"},
		{"serial": int64(3), "site": "c"},
	}
	repo.total = 3

	resp, err := svc.QueryItems(context.Background(), "sensors", &QueryItemsRequest{
		PageRequest: model.PageRequest{Limit: 2},
	})
	if err != nil {
		t.Fatalf("Failed to query items: %v", err)
	}
	if resp.Count != 2 || resp.Total != 3 {
		t.Errorf("Expected count 2 of total 3, got %d of %d", resp.Count, resp.Total)
	}
	if resp.NextOffset == nil || *resp.NextOffset != 2 {
		t.Fatalf("Expected next offset 2, got %v", resp.NextOffset)
	}

	resp, err = svc.QueryItems(context.Background(), "sensors", &QueryItemsRequest{
		PageRequest: model.PageRequest{Offset: 2, Limit: 2},
	})
	if err != nil {
		t.Fatalf("Failed to query second page: %v", err)
	}
	if resp.Count != 1 || resp.NextOffset != nil {
		t.Errorf("Expected the last page to have 1 item and no next offset, got %d and %v", resp.Count, resp.NextOffset)
	}
}

func TestQueryItemsCoercesFilters(t *testing.T) {
	svc, repo := newItemFixture(t)

	_, err := svc.QueryItems(context.Background(), "sensors", &QueryItemsRequest{
		Filters: map[string]string{"serial": "7", "active": "true"},
	})
	if err != nil {
		t.Fatalf("Failed to query with filters: %v", err)
	}
	if repo.lastFilters["serial"] != int64(7) {
		t.Errorf("Expected serial filter coerced to int64, got %T", repo.lastFilters["serial"])
	}
	if repo.lastFilters["active"] != true {
		t.Errorf("Expected active filter coerced to bool, got %v", repo.lastFilters["active"])
	}
}

func TestQueryItemsRejectsUnknownFilter(t *testing.T) {
	svc, _ := newItemFixture(t)

	_, err := svc.QueryItems(context.Background(), "sensors", &QueryItemsRequest{
		Filters: map[string]string{"firmware": "v2"},
	})
	if err == nil {
		t.Fatal("Expected unknown filter column to be rejected")
	}
	if !utils.IsErrorType(err, utils.ErrCodeValidationFailed) {
		t.Errorf("Expected VALIDATION_ERROR, got: %v", err)
	}
}

func TestGetItemKeyArity(t *testing.T) {
	svc, _ := newItemFixture(t)

	// sensors has a composite key (serial, site); one segment is not enough
	_, err := svc.GetItem(context.Background(), "sensors", []string{"7"})
	if err == nil {
		t.Fatal("Expected short key to be rejected")
	}
	if !utils.IsErrorType(err, utils.ErrCodeValidationFailed) {
		t.Errorf("Expected VALIDATION_ERROR, got: %v", err)
	}
}

func TestGetItemCoercesKey(t *testing.T) {
	svc, repo := newItemFixture(t)
	repo.items = []model.Item{{"serial": int64(7), "site": "berlin"}}

	_, err := svc.GetItem(context.Background(), "sensors", []string{"7", "berlin"})
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if repo.lastKey["serial"] != int64(7) {
		t.Errorf("Expected serial key coerced to int64, got %T", repo.lastKey["serial"])
	}
	if repo.lastKey["site"] != "berlin" {
		t.Errorf("Expected site key berlin, got %v", repo.lastKey["site"])
	}
}

func TestUpdateItemRejectsPrimaryKeyPatch(t *testing.T) {
	svc, _ := newItemFixture(t)

	_, err := svc.UpdateItem(context.Background(), "sensors", []string{"7", "berlin"}, map[string]interface{}{
		"serial": 8,
	})
	if err == nil {
		t.Fatal("Expected primary-key patch to be rejected")
	}
	if !utils.IsErrorType(err, utils.ErrCodeValidationFailed) {
		t.Errorf("Expected VALIDATION_ERROR, got: %v", err)
	}
}

func TestUpdateItemPatchesNonKeyColumn(t *testing.T) {
	svc, repo := newItemFixture(t)
	repo.items = []model.Item{{"serial": int64(7), "site": "berlin", "active": false}}

	_, err := svc.UpdateItem(context.Background(), "sensors", []string{"7", "berlin"}, map[string]interface{}{
		"active": false,
	})
	if err != nil {
		t.Fatalf("Failed to update item: %v", err)
	}
	if repo.lastPatch["active"] != false {
		t.Errorf("Expected patched active false, got %v", repo.lastPatch["active"])
	}
	if len(repo.lastPatch) != 1 {
		t.Errorf("Expected only the patched column, got %v", repo.lastPatch)
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	svc, _ := newItemFixture(t)

	err := svc.DeleteItem(context.Background(), "sensors", []string{"7", "berlin"})
	if err == nil {
		t.Fatal("Expected deleting an absent item to fail")
	}
	if !utils.IsErrorType(err, utils.ErrCodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got: %v", err)
	}
}
