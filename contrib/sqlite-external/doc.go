// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for builds that opt into it.
//
// core/sqlite imports this package only under the cgo_sqlite build tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/pngmsg
//
// Without the tag pngmsg uses the pure Go modernc.org/sqlite driver and
// needs no C toolchain.
package sqliteexternal
