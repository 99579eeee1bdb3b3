package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/internal/fetch"
	"github.com/FocuswithJustin/pngmsg/internal/imageconv"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
	"github.com/FocuswithJustin/pngmsg/internal/validation"
)

// DeleteCmd removes a file after backing it up.
type DeleteCmd struct {
	File string `arg:"" help:"File to delete" type:"existingfile"`
}

func (c *DeleteCmd) Run(app *App) error {
	if err := validation.ValidatePath(c.File); err != nil {
		return pngerrors.Wrap(err, "invalid path")
	}
	if err := app.backupExisting(c.File, "delete"); err != nil {
		return err
	}
	if err := os.Remove(c.File); err != nil {
		return pngerrors.NewIO("delete", c.File, err)
	}
	logging.Info("file_deleted", "path", c.File)
	return nil
}

// DownloadCmd fetches an image URL into a local file.
type DownloadCmd struct {
	URL    string `arg:"" name:"url" help:"http or https URL of the image"`
	Output string `arg:"" help:"Output file" type:"path"`
}

func (c *DownloadCmd) Run(app *App) error {
	if err := validation.ValidateFilename(filepath.Base(c.Output)); err != nil {
		return pngerrors.Wrap(err, "invalid output name")
	}

	dl := app.cfg.Download
	client := fetch.NewClient(
		fetch.WithTimeout(dl.Timeout),
		fetch.WithMaxBytes(dl.MaxBytes),
		fetch.WithUserAgent(dl.UserAgent),
	)
	data, err := client.Download(app.ctx, c.URL)
	if err != nil {
		return err
	}

	kind, err := validation.ValidateFileType(bytes.NewReader(data), c.Output)
	if err != nil {
		return err
	}
	if kind == validation.FileTypeUnknown {
		logging.Warn("downloaded content is not a recognised image", "url", c.URL)
	}

	if err := app.writeOutput(c.Output, data, "download"); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Downloaded %s to %s (%s)\n", c.URL, c.Output, kind)
	return nil
}

// ConvertCmd re-encodes an image. The output sits next to the input with
// the new format's extension.
type ConvertCmd struct {
	PNG  bool `short:"p" name:"png" xor:"format" help:"Convert to PNG"`
	JPEG bool `short:"j" name:"jpg" xor:"format" help:"Convert to JPEG"`
	TIFF bool `short:"t" name:"tiff" xor:"format" help:"Convert to TIFF"`
	WebP bool `short:"w" name:"webp" xor:"format" help:"Convert to WebP"`

	Input string `arg:"" help:"Image to convert" type:"existingfile"`
}

func (c *ConvertCmd) format() (imageconv.Format, error) {
	switch {
	case c.PNG:
		return imageconv.PNG, nil
	case c.JPEG:
		return imageconv.JPEG, nil
	case c.TIFF:
		return imageconv.TIFF, nil
	case c.WebP:
		return imageconv.WebP, nil
	}
	return "", pngerrors.NewValidation("format", "one of -p, -j, -t or -w is required")
}

func (c *ConvertCmd) Run(app *App) error {
	target, err := c.format()
	if err != nil {
		return err
	}
	data, err := readFile(c.Input)
	if err != nil {
		return err
	}
	out, err := imageconv.Convert(data, target)
	if err != nil {
		return pngerrors.Wrapf(err, "failed to convert %s", c.Input)
	}

	outPath := imageconv.OutputPath(c.Input, target)
	if err := app.writeOutput(outPath, out, "convert"); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Converted %s to %s\n", c.Input, outPath)
	return nil
}
