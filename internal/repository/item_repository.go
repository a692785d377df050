package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"item-warehouse/internal/model"
	"item-warehouse/internal/storage"
	"item-warehouse/internal/utils"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// Insert persists a validated record. Uniqueness and primary-key collisions
// are enforced by the store at write time, not by a separate check-then-act
// step, so two concurrent inserts with a colliding value can never both
// succeed.
func (r *itemRepository) Insert(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, values map[string]interface{}) (model.Item, error) {
	sqlDB, err := r.sqlDB()
	if err != nil {
		return nil, err
	}

	var cols, placeholders []string
	var args []interface{}
	for _, key := range itemSchema.Keys() {
		v, ok := values[key]
		if !ok {
			continue
		}
		cols = append(cols, quote(key))
		placeholders = append(placeholders, "?")
		args = append(args, v)
	}
	cols = append(cols, quote(model.CreatedAtColumn))
	placeholders = append(placeholders, "?")
	args = append(args, time.Now().UTC())

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(h.Table()), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	res, err := sqlDB.ExecContext(ctx, stmt, args...)
	if err != nil {
		if IsDuplicateEntry(err) {
			return nil, conflictError(itemSchema, h.Table(), err)
		}
		return nil, utils.NewStorageError(err, "insert failed")
	}

	if aiCol, ok := itemSchema.AutoincrementColumn(); ok {
		if _, supplied := values[aiCol]; !supplied {
			id, err := res.LastInsertId()
			if err != nil {
				return nil, utils.NewStorageError(err, "failed to read autoincrement value")
			}
			values[aiCol] = id
		}
	}

	key := make(map[string]interface{})
	for _, pk := range itemSchema.PrimaryKey() {
		key[pk] = values[pk]
	}
	return r.GetByKey(ctx, h, itemSchema, key)
}

// Query returns one page of matching items plus the total count of matching
// items at call time. Ordering is by the primary-key columns in declaration
// order, ascending.
func (r *itemRepository) Query(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, filters map[string]interface{}, page model.PageRequest) ([]model.Item, int64, error) {
	sqlDB, err := r.sqlDB()
	if err != nil {
		return nil, 0, err
	}

	where, args := buildWhere(itemSchema, filters)

	var total int64
	countStmt := "SELECT COUNT(*) FROM " + quote(h.Table()) + where
	if err := sqlDB.QueryRowContext(ctx, countStmt, args...).Scan(&total); err != nil {
		return nil, 0, utils.NewStorageError(err, "count failed")
	}

	stmt := "SELECT " + selectList(itemSchema) + " FROM " + quote(h.Table()) +
		where + orderByPrimaryKey(itemSchema) + " LIMIT ? OFFSET ?"
	rows, err := sqlDB.QueryContext(ctx, stmt, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, utils.NewStorageError(err, "query failed")
	}
	defer rows.Close()

	items, err := scanItems(itemSchema, rows)
	if err != nil {
		return nil, 0, utils.NewStorageError(err, "failed to scan items")
	}
	return items, total, nil
}

// GetByKey fetches one item by its primary-key value(s)
func (r *itemRepository) GetByKey(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key map[string]interface{}) (model.Item, error) {
	sqlDB, err := r.sqlDB()
	if err != nil {
		return nil, err
	}

	where, args := buildKeyWhere(itemSchema, key)
	stmt := "SELECT " + selectList(itemSchema) + " FROM " + quote(h.Table()) + where

	rows, err := sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, utils.NewStorageError(err, "lookup failed")
	}
	defer rows.Close()

	items, err := scanItems(itemSchema, rows)
	if err != nil {
		return nil, utils.NewStorageError(err, "failed to scan item")
	}
	if len(items) == 0 {
		return nil, utils.NewNotFoundError("item")
	}
	return items[0], nil
}

// Update applies a validated partial update. Existence is checked under a row
// lock inside a transaction so the check and the write cannot interleave with
// a concurrent delete.
func (r *itemRepository) Update(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key, patch map[string]interface{}) (model.Item, error) {
	if len(patch) == 0 {
		return r.GetByKey(ctx, h, itemSchema, key)
	}

	sqlDB, err := r.sqlDB()
	if err != nil {
		return nil, err
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, utils.NewStorageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	keyWhere, keyArgs := buildKeyWhere(itemSchema, key)

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM "+quote(h.Table())+keyWhere+" FOR UPDATE", keyArgs...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewNotFoundError("item")
	}
	if err != nil {
		return nil, utils.NewStorageError(err, "update lookup failed")
	}

	var sets []string
	var args []interface{}
	for _, col := range itemSchema.Keys() {
		v, ok := patch[col]
		if !ok {
			continue
		}
		sets = append(sets, quote(col)+" = ?")
		args = append(args, v)
	}

	stmt := "UPDATE " + quote(h.Table()) + " SET " + strings.Join(sets, ", ") + keyWhere
	if _, err := tx.ExecContext(ctx, stmt, append(args, keyArgs...)...); err != nil {
		if IsDuplicateEntry(err) {
			return nil, conflictError(itemSchema, h.Table(), err)
		}
		return nil, utils.NewStorageError(err, "update failed")
	}

	if err := tx.Commit(); err != nil {
		return nil, utils.NewStorageError(err, "failed to commit update")
	}
	return r.GetByKey(ctx, h, itemSchema, key)
}

// Delete removes one item by primary key. An already-absent key reports
// NOT_FOUND rather than silent success.
func (r *itemRepository) Delete(ctx context.Context, h storage.Handle, itemSchema model.ItemSchema, key map[string]interface{}) error {
	sqlDB, err := r.sqlDB()
	if err != nil {
		return err
	}

	where, args := buildKeyWhere(itemSchema, key)
	res, err := sqlDB.ExecContext(ctx, "DELETE FROM "+quote(h.Table())+where, args...)
	if err != nil {
		return utils.NewStorageError(err, "delete failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return utils.NewNotFoundError("item")
	}
	return nil
}

func (r *itemRepository) sqlDB() (*sql.DB, error) {
	sqlDB, err := r.db.DB()
	if err != nil {
		return nil, utils.NewStorageError(err, "failed to acquire database connection")
	}
	return sqlDB, nil
}

func quote(name string) string {
	return "`" + name + "`"
}

// selectList renders the quoted column list: declared columns in declaration
// order, then the store-stamped created_at.
func selectList(itemSchema model.ItemSchema) string {
	cols := make([]string, 0, itemSchema.Len()+1)
	for _, key := range itemSchema.Keys() {
		cols = append(cols, quote(key))
	}
	cols = append(cols, quote(model.CreatedAtColumn))
	return strings.Join(cols, ", ")
}

// buildWhere renders exact-match predicates in declaration order so the
// statement text is deterministic for a given filter set
func buildWhere(itemSchema model.ItemSchema, filters map[string]interface{}) (string, []interface{}) {
	var preds []string
	var args []interface{}
	for _, key := range itemSchema.Keys() {
		v, ok := filters[key]
		if !ok {
			continue
		}
		if v == nil {
			preds = append(preds, quote(key)+" IS NULL")
			continue
		}
		preds = append(preds, quote(key)+" = ?")
		args = append(args, v)
	}
	if len(preds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

func buildKeyWhere(itemSchema model.ItemSchema, key map[string]interface{}) (string, []interface{}) {
	var preds []string
	var args []interface{}
	for _, pk := range itemSchema.PrimaryKey() {
		preds = append(preds, quote(pk)+" = ?")
		args = append(args, key[pk])
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

func orderByPrimaryKey(itemSchema model.ItemSchema) string {
	pk := itemSchema.PrimaryKey()
	quoted := make([]string, len(pk))
	for i, col := range pk {
		quoted[i] = quote(col) + " ASC"
	}
	return " ORDER BY " + strings.Join(quoted, ", ")
}

// scanItems reads rows generically: one positional slot per selected column,
// normalized back to the logical type afterwards
func scanItems(itemSchema model.ItemSchema, rows *sql.Rows) ([]model.Item, error) {
	colNames := append(itemSchema.Keys(), model.CreatedAtColumn)
	var items []model.Item

	for rows.Next() {
		values := make([]interface{}, len(colNames))
		ptrs := make([]interface{}, len(colNames))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		item := make(model.Item, len(colNames))
		for i, name := range colNames {
			item[name] = normalizeValue(itemSchema, name, values[i])
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// normalizeValue converts driver representations ([]byte text, 0/1 booleans,
// time.Time dates) back to the column's logical type, so reads echo the
// representation writes accepted: dates come back as plain date text and
// json columns as structures rather than encoded strings.
func normalizeValue(itemSchema model.ItemSchema, col string, v interface{}) interface{} {
	if v == nil {
		return nil
	}

	spec, declared := itemSchema.Get(col)

	if raw, ok := v.([]byte); ok {
		s := string(raw)
		if !declared {
			return s
		}
		switch spec.Type {
		case model.ColumnTypeInteger:
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		case model.ColumnTypeFloat:
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		case model.ColumnTypeBoolean:
			return s != "0"
		case model.ColumnTypeJSON:
			return json.RawMessage(append([]byte(nil), raw...))
		}
		return s
	}

	if declared {
		switch spec.Type {
		case model.ColumnTypeBoolean:
			if n, ok := v.(int64); ok {
				return n != 0
			}
		case model.ColumnTypeDate:
			if t, ok := v.(time.Time); ok {
				return t.Format("2006-01-02")
			}
		case model.ColumnTypeJSON:
			if s, ok := v.(string); ok {
				return json.RawMessage(s)
			}
		}
	}
	return v
}

// conflictError maps a duplicate-entry failure to a CONFLICT error naming the
// colliding column(s), recovered from the constraint name in the store's
// message ("PRIMARY" or uq_<table>_<column>).
func conflictError(itemSchema model.ItemSchema, table string, err error) *utils.AppError {
	msg := err.Error()

	if strings.Contains(msg, "'PRIMARY'") {
		return utils.NewConflictError(msg, itemSchema.PrimaryKey()...)
	}

	prefix := "uq_" + table + "_"
	if i := strings.Index(msg, prefix); i >= 0 {
		rest := msg[i+len(prefix):]
		if j := strings.IndexAny(rest, "'\""); j > 0 {
			return utils.NewConflictError(msg, rest[:j])
		}
	}
	return utils.NewConflictError(msg)
}
