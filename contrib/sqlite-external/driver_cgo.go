//go:build cgo_sqlite

package sqliteexternal

import (
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
)

// DriverName is the database/sql driver name registered by this package.
const DriverName = "sqlite3"
