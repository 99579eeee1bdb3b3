// Package backup keeps copies of files before pngmsg rewrites them, so an
// edit can be undone with restore.
package backup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/FocuswithJustin/pngmsg/core/cas"
	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/internal/catalog"
	"github.com/FocuswithJustin/pngmsg/internal/fileutil"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
)

// Manager stores file content in a blob store and journals it in the catalog.
type Manager struct {
	store   *cas.Store
	catalog *catalog.Catalog
}

// New returns a Manager backed by store and cat.
func New(store *cas.Store, cat *catalog.Catalog) *Manager {
	return &Manager{store: store, catalog: cat}
}

// Save stores data as the current content of path before operation
// modifies it.
func (m *Manager) Save(ctx context.Context, path string, data []byte, operation string) (catalog.Backup, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return catalog.Backup{}, pngerrors.NewIO("resolve", path, err)
	}

	hash, err := m.store.Put(data)
	if err != nil {
		return catalog.Backup{}, pngerrors.Wrapf(err, "failed to store backup of %s", path)
	}

	b, err := m.catalog.RecordBackup(ctx, catalog.Backup{
		Path:      abs,
		Hash:      hash,
		Operation: operation,
		Size:      int64(len(data)),
	})
	if err != nil {
		return catalog.Backup{}, err
	}

	logging.BackupCreated(ctx, abs, b.ID, hash, "operation", operation, "size", len(data))
	return b, nil
}

// List returns the backups of path, newest first. An empty path lists all.
func (m *Manager) List(ctx context.Context, path string) ([]catalog.Backup, error) {
	if path == "" {
		return m.catalog.Backups(ctx, "")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pngerrors.NewIO("resolve", path, err)
	}
	return m.catalog.Backups(ctx, abs)
}

// Restore writes a backup back to path. With an empty id the newest backup
// of path is used; otherwise the backup must belong to path.
func (m *Manager) Restore(ctx context.Context, path, id string) (catalog.Backup, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return catalog.Backup{}, pngerrors.NewIO("resolve", path, err)
	}

	var b catalog.Backup
	if id == "" {
		b, err = m.catalog.LatestBackup(ctx, abs)
	} else {
		b, err = m.catalog.BackupByID(ctx, id)
	}
	if err != nil {
		return catalog.Backup{}, err
	}
	if b.Path != abs {
		return catalog.Backup{}, &pngerrors.ValidationError{
			Field:   "id",
			Value:   id,
			Message: fmt.Sprintf("backup belongs to %s", b.Path),
		}
	}

	data, err := m.store.Get(b.Hash)
	if err != nil {
		return catalog.Backup{}, pngerrors.Wrapf(err, "failed to load backup %s", b.ID)
	}
	if err := fileutil.WriteFileAtomic(abs, data, 0644); err != nil {
		return catalog.Backup{}, pngerrors.NewIO("write", abs, err)
	}

	logging.FileWritten(ctx, abs, len(data), "restored_from", b.ID)
	return b, nil
}
