package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/tagfile/pkg/snapshot"
)

func snapshotDir(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	a, err := appFrom(cmd)
	if err != nil {
		return "", err
	}
	return a.cfg.Snapshot.Dir, nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Export every entry into a Pebble snapshot",
		Long: `Copy every readable entry into a Pebble database at dir, replacing the
entries of any previous export there. Without dir, snapshot.dir from the
config is used.

Example:
  tagfile export ./backup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd, args)
			if err != nil {
				return err
			}
			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}

			manifest, err := snapshot.Export(cmd.Context(), c, dir)
			if err != nil {
				return err
			}

			cmd.Printf("Snapshot %s: %d entries exported to %s\n", manifest.ID, manifest.Entries, dir)
			if manifest.Skipped > 0 {
				cmd.Printf("Skipped %d unreadable entries\n", manifest.Skipped)
			}
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Import entries from a Pebble snapshot",
		Long: `Write every entry of the snapshot at dir into the container. Names the
container already holds are skipped.

Example:
  tagfile import ./backup -f ./restored.tagfile`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := snapshotDir(cmd, args)
			if err != nil {
				return err
			}
			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}

			result, err := snapshot.Import(cmd.Context(), dir, c)
			if err != nil {
				return err
			}

			cmd.Printf("Snapshot %s: %d imported, %d skipped\n", result.Manifest.ID, result.Imported, result.Skipped)
			return nil
		},
	}
}
