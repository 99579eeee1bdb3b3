package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// BackupListCmd lists backups, newest first.
type BackupListCmd struct {
	File string `arg:"" optional:"" help:"Only list backups of this file" type:"path"`
}

func (c *BackupListCmd) Run(app *App) error {
	m, err := app.Backups()
	if err != nil {
		return err
	}
	backups, err := m.List(app.ctx, c.File)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintln(app.stdout, "No backups")
		return nil
	}

	w := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPERATION\tSIZE\tCREATED\tPATH")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Operation, humanize.Bytes(uint64(b.Size)), humanize.Time(b.CreatedAt), b.Path)
	}
	return w.Flush()
}

// BackupRestoreCmd writes a backup back over its file.
type BackupRestoreCmd struct {
	File string `arg:"" help:"File to restore" type:"path"`
	ID   string `help:"Backup ID (default: the newest backup of the file)"`
}

func (c *BackupRestoreCmd) Run(app *App) error {
	m, err := app.Backups()
	if err != nil {
		return err
	}
	b, err := m.Restore(app.ctx, c.File, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Restored %s from backup %s (%s, %s)\n",
		c.File, b.ID, b.Operation, humanize.Time(b.CreatedAt))
	return nil
}
