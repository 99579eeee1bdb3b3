package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/internal/catalog"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
	"github.com/FocuswithJustin/pngmsg/internal/validation"
)

// CatalogScanCmd records the chunk layout of every PNG under a directory.
type CatalogScanCmd struct {
	Dir string `arg:"" help:"Directory to scan" type:"existingdir"`
}

func (c *CatalogScanCmd) Run(app *App) error {
	cat, err := app.Catalog()
	if err != nil {
		return err
	}

	var files, chunks, skipped int
	var total uint64
	err = filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || validation.FileTypeFromExtension(path) != validation.FileTypePNG {
			return nil
		}

		p, err := decodeFile(path)
		if err != nil {
			skipped++
			logging.Warn("skipping unreadable PNG", "path", path, "error", err)
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if err := cat.ReplaceChunks(app.ctx, abs, catalog.ChunkRows(abs, p)); err != nil {
			return err
		}
		files++
		chunks += p.Len()
		total += uint64(p.Size())
		return nil
	})
	if err != nil {
		return pngerrors.Wrapf(err, "scan of %s failed", c.Dir)
	}

	fmt.Fprintf(app.stdout, "Scanned %d files (%s), %d chunks, %d skipped\n",
		files, humanize.Bytes(total), chunks, skipped)
	return nil
}

// CatalogQueryCmd lists catalogued chunks.
type CatalogQueryCmd struct {
	Type string `help:"Only list chunks of this type"`
}

func (c *CatalogQueryCmd) Run(app *App) error {
	cat, err := app.Catalog()
	if err != nil {
		return err
	}
	rows, err := cat.QueryChunks(app.ctx, c.Type)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(app.stdout, "No chunks")
		return nil
	}

	w := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tINDEX\tTYPE\tLENGTH\tCRC\tFLAGS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%08x\t%s\n", r.Path, r.Index, r.Type, r.Length, r.CRC, chunkFlags(r))
	}
	return w.Flush()
}

func chunkFlags(r catalog.ChunkRow) string {
	flags := "ancillary"
	if r.Critical {
		flags = "critical"
	}
	if r.SafeToCopy {
		flags += ",safe-to-copy"
	}
	if !r.CRCOK {
		flags += ",bad-crc"
	}
	return flags
}
