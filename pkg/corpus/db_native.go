//go:build !cgo_sqlite

package corpus

import (
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver used for corpus databases.
const driverName = "sqlite"
