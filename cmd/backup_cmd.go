package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsback/internal/config"
	"github.com/kebairia/fsback/internal/operations"
)

var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Back up all registered paths into DEST",
	Long: `Back up every registered path into the destination directory.
A destination that already holds a backup is updated incrementally:
folder-name assignments come from its ledger and unchanged files are
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(configFile)
		if err != nil {
			return err
		}
		summary, err := operations.NewOperator(store).Backup(args[0])
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("backup completed with %d failure(s)", summary.Failed)
		}
		return nil
	},
}
