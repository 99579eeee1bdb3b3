package main

import (
	"fmt"

	pngerrors "github.com/FocuswithJustin/pngmsg/core/errors"
	"github.com/FocuswithJustin/pngmsg/core/png"
	"github.com/FocuswithJustin/pngmsg/internal/logging"
)

// EncodeCmd appends a text chunk.
type EncodeCmd struct {
	File      string `arg:"" help:"PNG file to read" type:"existingfile"`
	ChunkType string `arg:"" help:"Four-letter chunk type, e.g. ruSt"`
	Message   string `arg:"" help:"Message to store"`
	Output    string `arg:"" optional:"" help:"Output file (default: overwrite the input)" type:"path"`
}

func (c *EncodeCmd) Run(app *App) error {
	p, err := app.readPNG(c.File)
	if err != nil {
		return err
	}
	chunk, err := png.NewTextChunk(c.ChunkType, c.Message)
	if err != nil {
		return err
	}
	p.AppendChunk(chunk)

	out := c.Output
	if out == "" {
		out = c.File
	}
	if err := app.writeOutput(out, p.Bytes(), "encode"); err != nil {
		return err
	}
	logging.ChunkOperation(app.ctx, "encode", out, chunk.Type().String(), "data_length", chunk.Length())
	return nil
}

// DecodeCmd prints the first chunk of a type as text.
type DecodeCmd struct {
	File      string `arg:"" help:"PNG file to read" type:"existingfile"`
	ChunkType string `arg:"" help:"Chunk type to look up"`
}

func (c *DecodeCmd) Run(app *App) error {
	p, err := app.readPNG(c.File)
	if err != nil {
		return err
	}
	chunk := p.ChunkByType(c.ChunkType)
	if chunk == nil {
		return &pngerrors.NotFoundError{Resource: "chunk", ID: c.ChunkType, Err: png.ErrChunkNotFound}
	}
	msg, err := chunk.DataString()
	if err != nil {
		return err
	}
	logging.ChunkOperation(app.ctx, "decode", c.File, c.ChunkType)
	fmt.Fprintf(app.stdout, "msg: %s\n", msg)
	return nil
}

// RemoveCmd removes the first chunk of a type and rewrites the file.
type RemoveCmd struct {
	File      string `arg:"" help:"PNG file to modify" type:"existingfile"`
	ChunkType string `arg:"" help:"Chunk type to remove"`
}

func (c *RemoveCmd) Run(app *App) error {
	p, err := app.readPNG(c.File)
	if err != nil {
		return err
	}
	removed, err := p.RemoveFirstChunk(c.ChunkType)
	if err != nil {
		return err
	}
	if err := app.writeOutput(c.File, p.Bytes(), "remove"); err != nil {
		return err
	}
	logging.ChunkOperation(app.ctx, "remove", c.File, c.ChunkType, "data_length", removed.Length())
	return nil
}

// PrintCmd lists chunks.
type PrintCmd struct {
	File string `arg:"" help:"PNG file to read" type:"existingfile"`
}

func (c *PrintCmd) Run(app *App) error {
	p, err := app.readPNG(c.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "File: %s, Size: %d\n", c.File, p.Size())
	for i, chunk := range p.Chunks() {
		fmt.Fprintf(app.stdout, "  chunk#%d{ chunk_type: %s, data_length: %d}\n", i, chunk.Type(), chunk.Length())
	}
	return nil
}

// VerifyCmd reports the CRC status of every chunk.
type VerifyCmd struct {
	File string `arg:"" help:"PNG file to check" type:"existingfile"`
}

func (c *VerifyCmd) Run(app *App) error {
	// Decoded leniently so every chunk gets reported.
	p, err := decodeFile(c.File)
	if err != nil {
		return err
	}

	bad := 0
	for _, r := range p.Verify() {
		if r.OK() {
			fmt.Fprintf(app.stdout, "  chunk#%d %s crc=%08x ok\n", r.Index, r.Type, r.Stored)
			continue
		}
		bad++
		fmt.Fprintf(app.stdout, "  chunk#%d %s crc=%08x MISMATCH (computed %08x)\n", r.Index, r.Type, r.Stored, r.Computed)
	}
	if bad > 0 {
		return fmt.Errorf("%s: %d of %d chunks: %w", c.File, bad, p.Len(), png.ErrChecksumMismatch)
	}
	fmt.Fprintf(app.stdout, "%s: all %d chunks ok\n", c.File, p.Len())
	return nil
}
