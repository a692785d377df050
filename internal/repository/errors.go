package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Common repository errors
var (
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrWarehouseExists   = errors.New("warehouse already exists")
)

// mysqlDuplicateEntry is the MySQL error number for unique/primary-key
// collisions; the store enforces these atomically at the point of write.
const mysqlDuplicateEntry = 1062

// IsDuplicateEntry reports whether err is a unique or primary-key collision
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
