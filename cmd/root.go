package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsback/internal/logger"
)

var (
	// configFile is the path to the registration store.
	configFile string

	// rootCmd is the base command for fsback.
	rootCmd = &cobra.Command{
		Use:   "fsback",
		Short: "Incremental folder backup and restore",
		Long: `fsback backs up a registered set of paths into a destination tree
and restores them on demand, stopping and restarting the services
that hold those paths open.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() {
	if _, err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		logger.Global().Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configFile, "config", "c", "./configs/config.yaml", "path to the registration store")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(pathCmd)
}
