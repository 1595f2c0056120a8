package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hyperengineering/forge/internal/snapshot"
	"github.com/spf13/cobra"
)

var backupOut string

var moduleBackupCmd = &cobra.Command{
	Use:   "backup <module>",
	Short: "Snapshot a module store",
	Long:  "Write a consistent copy of a module's pattern store. When snapshot_storage.bucket is configured the copy is also uploaded and a download link printed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleBackup,
}

func init() {
	moduleBackupCmd.Flags().StringVar(&backupOut, "out", "",
		"Destination file (default <module>-<timestamp>.db in the current directory)")
}

func runModuleBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	uploader, err := snapshot.NewUploader(ws.cfg.SnapshotStorage)
	if err != nil {
		return fmt.Errorf("configure snapshot storage: %w", err)
	}

	managed, err := ws.registry.Store(ctx, args[0])
	if err != nil {
		return err
	}

	path := backupOut
	if path == "" {
		path = fmt.Sprintf("%s-%s.db", managed.ID, time.Now().UTC().Format("20060102T150405Z"))
	}

	// A failed upload still leaves a usable local copy, which is reported
	// before the error.
	res, err := snapshot.Backup(ctx, managed.Store, managed.ID, path, uploader)
	if res == nil {
		return err
	}

	if jsonOutput {
		if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
			return perr
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backed up module %q to %s\n", res.ModuleID, res.Path)
	if res.URL != "" {
		fmt.Fprintf(out, "Uploaded. Download link expires %s:\n%s\n", humanize.Time(res.URLExpiry), res.URL)
	}
	return err
}
