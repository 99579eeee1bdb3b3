// Package catalog keeps a SQLite record of backups taken before files are
// rewritten and of the chunks found in scanned PNG files.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/core/png"
	"github.com/FocuswithJustin/pngmsg/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS backups (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	blake3     TEXT NOT NULL,
	operation  TEXT NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS backups_path ON backups (path, created_at);

CREATE TABLE IF NOT EXISTS chunks (
	path         TEXT NOT NULL,
	idx          INTEGER NOT NULL,
	type         TEXT NOT NULL,
	length       INTEGER NOT NULL,
	crc          INTEGER NOT NULL,
	crc_ok       INTEGER NOT NULL,
	critical     INTEGER NOT NULL,
	safe_to_copy INTEGER NOT NULL,
	PRIMARY KEY (path, idx)
);
CREATE INDEX IF NOT EXISTS chunks_type ON chunks (type);
`

// Backup describes one stored copy of a file.
type Backup struct {
	ID        string
	Path      string
	Hash      string // BLAKE3 of the content
	Operation string // command that triggered the backup
	Size      int64
	CreatedAt time.Time
}

// ChunkRow is one chunk of a scanned file.
type ChunkRow struct {
	Path       string
	Index      int
	Type       string
	Length     uint32
	CRC        uint32
	CRCOK      bool
	Critical   bool
	SafeToCopy bool
}

// Catalog is an open catalog database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, pngerrors.NewIO("create catalog directory", filepath.Dir(path), err)
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, pngerrors.NewIO("open catalog", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordBackup inserts b. An empty ID is replaced by a new UUID and a zero
// CreatedAt by the current time. The stored row is returned.
func (c *Catalog) RecordBackup(ctx context.Context, b Backup) (Backup, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO backups (id, path, blake3, operation, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Path, b.Hash, b.Operation, b.Size, b.CreatedAt.UnixNano())
	if err != nil {
		return Backup{}, fmt.Errorf("failed to record backup: %w", err)
	}
	return b, nil
}

// Backups lists backups of path, newest first. An empty path lists all.
func (c *Catalog) Backups(ctx context.Context, path string) ([]Backup, error) {
	query := `SELECT id, path, blake3, operation, size, created_at FROM backups`
	var args []any
	if path != "" {
		query += ` WHERE path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestBackup returns the newest backup of path.
func (c *Catalog) LatestBackup(ctx context.Context, path string) (Backup, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, path, blake3, operation, size, created_at FROM backups
		 WHERE path = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, path)
	b, err := scanBackup(row)
	if pngerrors.Is(err, sql.ErrNoRows) {
		return Backup{}, pngerrors.NewNotFound("backup", path)
	}
	return b, err
}

// BackupByID returns the backup with the given ID.
func (c *Catalog) BackupByID(ctx context.Context, id string) (Backup, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, path, blake3, operation, size, created_at FROM backups WHERE id = ?`, id)
	b, err := scanBackup(row)
	if pngerrors.Is(err, sql.ErrNoRows) {
		return Backup{}, pngerrors.NewNotFound("backup", id)
	}
	return b, err
}

// ReplaceChunks swaps the stored chunks of path for rows in one transaction.
func (c *Catalog) ReplaceChunks(ctx context.Context, path string, rows []ChunkRow) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (path, idx, type, length, crc, crc_ok, critical, safe_to_copy) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, path, r.Index, r.Type, r.Length, r.CRC, r.CRCOK, r.Critical, r.SafeToCopy); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", r.Index, err)
		}
	}
	return tx.Commit()
}

// QueryChunks returns catalogued chunks ordered by path and index. An empty
// chunkType matches every chunk.
func (c *Catalog) QueryChunks(ctx context.Context, chunkType string) ([]ChunkRow, error) {
	query := `SELECT path, idx, type, length, crc, crc_ok, critical, safe_to_copy FROM chunks`
	var args []any
	if chunkType != "" {
		query += ` WHERE type = ?`
		args = append(args, chunkType)
	}
	query += ` ORDER BY path, idx`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		var length, crc int64
		if err := rows.Scan(&r.Path, &r.Index, &r.Type, &length, &crc, &r.CRCOK, &r.Critical, &r.SafeToCopy); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		r.Length = uint32(length)
		r.CRC = uint32(crc)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChunkRows describes every chunk of p for storage under path.
func ChunkRows(path string, p *png.Png) []ChunkRow {
	chunks := p.Chunks()
	rows := make([]ChunkRow, len(chunks))
	for i, c := range chunks {
		t := c.Type()
		rows[i] = ChunkRow{
			Path:       path,
			Index:      i,
			Type:       t.String(),
			Length:     c.Length(),
			CRC:        c.CRC(),
			CRCOK:      c.VerifyCRC() == nil,
			Critical:   t.IsCritical(),
			SafeToCopy: t.IsSafeToCopy(),
		}
	}
	return rows
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackup(s rowScanner) (Backup, error) {
	var b Backup
	var created int64
	if err := s.Scan(&b.ID, &b.Path, &b.Hash, &b.Operation, &b.Size, &created); err != nil {
		if pngerrors.Is(err, sql.ErrNoRows) {
			return Backup{}, err
		}
		return Backup{}, fmt.Errorf("failed to scan backup: %w", err)
	}
	b.CreatedAt = time.Unix(0, created)
	return b, nil
}
