package main

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/pngmsg/core/cas"
	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/core/png"
	"github.com/FocuswithJustin/pngmsg/internal/backup"
	"github.com/FocuswithJustin/pngmsg/internal/catalog"
	"github.com/FocuswithJustin/pngmsg/internal/config"
	"github.com/FocuswithJustin/pngmsg/internal/fileutil"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
	"github.com/FocuswithJustin/pngmsg/internal/validation"
)

// App carries the resolved configuration and shared resources into
// command Run methods.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	stdout io.Writer

	catalog *catalog.Catalog
	backups *backup.Manager
}

func newApp(ctx context.Context, g Globals, stdout io.Writer) (*App, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	if g.Strict {
		cfg.StrictCRC = true
	}
	if g.NoBackup {
		cfg.Backup.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	logging.InitLogger(level, format)

	return &App{
		ctx:    logging.WithRunID(ctx, uuid.New().String()),
		cfg:    cfg,
		stdout: stdout,
	}, nil
}

// Close releases the catalog if it was opened.
func (a *App) Close() error {
	if a.catalog == nil {
		return nil
	}
	return a.catalog.Close()
}

// Catalog opens the catalog on first use.
func (a *App) Catalog() (*catalog.Catalog, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}
	c, err := catalog.Open(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	a.catalog = c
	return c, nil
}

// Backups returns the backup manager, opening its store and catalog on
// first use.
func (a *App) Backups() (*backup.Manager, error) {
	if a.backups != nil {
		return a.backups, nil
	}
	store, err := cas.NewStore(a.cfg.Backup.Dir)
	if err != nil {
		return nil, err
	}
	c, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	a.backups = backup.New(store, c)
	return a.backups, nil
}

func (a *App) decodeOptions() []png.DecodeOption {
	if a.cfg.StrictCRC {
		return []png.DecodeOption{png.WithStrictCRC()}
	}
	return nil
}

// readFile reads a user-supplied path under the size limit.
func readFile(path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, &pngerrors.ValidationError{Field: "path", Value: path, Message: err.Error(), Err: err}
	}
	data, err := fileutil.ReadFileLimited(path, validation.MaxFileSize)
	if err != nil {
		return nil, pngerrors.NewIO("read", path, err)
	}
	return data, nil
}

// readPNG reads and decodes path with the configured CRC policy.
func (a *App) readPNG(path string) (*png.Png, error) {
	return decodeFile(path, a.decodeOptions()...)
}

func decodeFile(path string, opts ...png.DecodeOption) (*png.Png, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := png.Decode(data, opts...)
	if err != nil {
		var perr *pngerrors.ParseError
		if pngerrors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return p, nil
}

// backupExisting saves the current content of path when backups are on and
// the file exists.
func (a *App) backupExisting(path, operation string) error {
	if !a.cfg.Backup.Enabled {
		return nil
	}
	data, err := os.ReadFile(path)
	if pngerrors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return pngerrors.NewIO("read", path, err)
	}
	m, err := a.Backups()
	if err != nil {
		return err
	}
	_, err = m.Save(a.ctx, path, data, operation)
	return err
}

// writeOutput backs up whatever is at path and then replaces it with data.
func (a *App) writeOutput(path string, data []byte, operation string) error {
	if err := validation.ValidatePath(path); err != nil {
		return &pngerrors.ValidationError{Field: "output", Value: path, Message: err.Error(), Err: err}
	}
	if err := a.backupExisting(path, operation); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0644); err != nil {
		return pngerrors.NewIO("write", path, err)
	}
	logging.FileWritten(a.ctx, path, len(data), "operation", operation)
	return nil
}
