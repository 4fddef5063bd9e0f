// Package cli wires the crypta commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crypta",
		Short: "Crypta keeps sops-encrypted secrets in a git repository",
		Long: `Crypta keeps sops-encrypted secrets in a git repository.

Secrets live in a YAML file encrypted with sops and age. Every machine holds a
clone of the same repository; 'crypta sync' commits local edits, replays them on
top of the remote and pushes the result.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Write debug output to the console")
	rootCmd.PersistentFlags().String("config", "", "Path of the config file (default $CRYPTA_CONFIG or ~/.config/crypta/config.yaml)")

	rootCmd.AddCommand(
		newInitCmd(),
		newSyncCmd(),
		newStatusCmd(),
		newSetCmd(),
		newStoreCmd(),
		newGetCmd(),
		newLookupCmd(),
		newListCmd(),
		newDeleteCmd(),
		newVersionCmd(version, commit, date),
	)

	return rootCmd
}

// newVersionCmd creates the version command
func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crypta %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
