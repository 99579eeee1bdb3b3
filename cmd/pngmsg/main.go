// Command pngmsg hides text messages in PNG files as ancillary chunks.
// It can also print and verify chunk layouts, download and convert images,
// restore files from backups and keep a searchable catalog of chunks.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/pngmsg/core/sqlite"
)

var version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Config    string `help:"Config file path (default $PNGMSG_CONFIG)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`
	Strict    bool   `help:"Reject files whose chunk CRCs do not match"`
	NoBackup  bool   `name:"no-backup" help:"Do not back up files before overwriting them"`
}

// CLI defines the command-line interface for pngmsg.
type CLI struct {
	Globals

	Encode  EncodeCmd    `cmd:"" help:"Append a message chunk to a PNG file"`
	Decode  DecodeCmd    `cmd:"" help:"Print the message stored in a chunk"`
	Remove  RemoveCmd    `cmd:"" help:"Remove the first chunk of a type"`
	Print   PrintCmd     `cmd:"" help:"List the chunks of a PNG file"`
	Verify  VerifyCmd    `cmd:"" help:"Check every chunk CRC"`
	Manage  ManageGroup  `cmd:"" help:"File management (delete, download, convert)"`
	Backup  BackupGroup  `cmd:"" help:"Backups taken before files were rewritten"`
	Catalog CatalogGroup `cmd:"" help:"Chunk catalog of scanned files"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// ManageGroup contains file management operations.
type ManageGroup struct {
	Delete   DeleteCmd   `cmd:"" help:"Delete a file, keeping a backup"`
	Download DownloadCmd `cmd:"" help:"Download an image from a URL"`
	Convert  ConvertCmd  `cmd:"" help:"Convert an image to another format"`
}

// BackupGroup contains backup operations.
type BackupGroup struct {
	List    BackupListCmd    `cmd:"" help:"List backups"`
	Restore BackupRestoreCmd `cmd:"" help:"Restore a file from a backup"`
}

// CatalogGroup contains catalog operations.
type CatalogGroup struct {
	Scan  CatalogScanCmd  `cmd:"" help:"Record the chunks of every PNG under a directory"`
	Query CatalogQueryCmd `cmd:"" help:"List catalogued chunks"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.stdout, "pngmsg version %s\n", version)
	fmt.Fprintf(app.stdout, "sqlite driver: %s\n", sqlite.GetInfo())
	return nil
}

func newParser(cli *CLI, stdout io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("pngmsg"),
		kong.Description("Hide and recover messages in PNG chunks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, os.Stderr),
	)
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, stdout)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cli.Globals, stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	return kctx.Run(app)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pngmsg: error: %v\n", err)
		os.Exit(1)
	}
}
