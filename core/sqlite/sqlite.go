// Package sqlite opens the catalog database with whichever driver the build
// selected.
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with -tags cgo_sqlite (and CGO_ENABLED=1) switches to mattn/go-sqlite3 via
// contrib/sqlite-external.
package sqlite

import (
	"database/sql"
	"fmt"
)

// connectionPragmas are applied to every database opened with Open.
var connectionPragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// IsCGO reports whether the build uses the CGO driver.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens or creates the database file at path. The pool is limited to
// one connection so the pragmas hold for every statement, and two pngmsg
// processes serialize on the busy timeout.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range connectionPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Info describes the compiled-in driver.
type Info struct {
	DriverName string
	DriverType string // "purego" or "cgo"
	Package    string
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Package, i.DriverType)
}

// GetInfo returns the compiled-in driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}
