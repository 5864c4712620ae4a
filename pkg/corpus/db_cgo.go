//go:build cgo_sqlite

package corpus

import (
	_ "github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver used for corpus databases.
const driverName = "sqlite3"
