package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsback/internal/config"
	"github.com/kebairia/fsback/internal/operations"
)

var restoreCmd = &cobra.Command{
	Use:   "restore PATH",
	Short: "Restore backed-up items to their original locations",
	Long: `Restore from a backup. PATH may be the backup root (restores
everything its ledger records) or one backed-up folder inside it
(restores just that item). Existing files at the original locations
are overwritten after confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(configFile)
		if err != nil {
			return err
		}
		summary, err := operations.NewOperator(store).Restore(args[0])
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("restore completed with %d failure(s)", summary.Failed)
		}
		return nil
	},
}
