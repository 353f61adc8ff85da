package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kebairia/fsback/internal/config"
	"github.com/kebairia/fsback/internal/operations"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Manage the registered backup paths",
}

var pathAddCmd = &cobra.Command{
	Use:   "add PATH",
	Short: "Register a path for backup",
	Long: `Register a path for backup. Environment references like %APPDATA%
or $HOME are stored as written and expanded at backup time, so the
registration stays portable across accounts. Two spellings that expand
to the same location count as duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(configFile)
		if err != nil {
			return err
		}
		confirm := operations.PromptConfirm(os.Stdin, os.Stdout)
		if err := store.Add(args[0], confirm); err != nil {
			return err
		}
		fmt.Printf("path added: %s\n", args[0])
		return nil
	},
}

var pathRemoveCmd = &cobra.Command{
	Use:   "remove PATH",
	Short: "Unregister a backup path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("path removed: %s\n", args[0])
		return nil
	},
}

var pathListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered backup paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(configFile)
		if err != nil {
			return err
		}
		entries := store.Entries()
		if len(entries) == 0 {
			fmt.Println("no backup paths registered")
			return nil
		}

		present := color.New(color.FgGreen).Sprint("✓")
		missing := color.New(color.FgRed).Sprint("✗")
		for i, entry := range entries {
			expanded := entry.Expanded()
			marker := present
			if _, err := os.Stat(expanded); err != nil {
				marker = missing
			}
			fmt.Printf("  %d. [%s] %s\n", i+1, marker, expanded)
			if entry.Destination != "" {
				fmt.Printf("       destination: %s\n", entry.Destination)
			}
			if entry.Service != "" {
				fmt.Printf("       service: %s\n", entry.Service)
			}
			if len(entry.Exclude) > 0 {
				fmt.Printf("       exclude: %s\n", strings.Join(entry.Exclude, ", "))
			}
		}
		return nil
	},
}

func init() {
	pathCmd.AddCommand(pathAddCmd)
	pathCmd.AddCommand(pathRemoveCmd)
	pathCmd.AddCommand(pathListCmd)
}
