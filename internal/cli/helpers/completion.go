// Package helpers provides shared helper functions for CLI commands.
package helpers

import (
	"github.com/spf13/cobra"

	"github.com/atareao/crypta/internal/runtime"
)

// CompleteKeys is a helper for cobra.ValidArgsFunction that returns the keys
// of the secrets file. It decrypts the file, so it stays silent on any failure.
func CompleteKeys(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	configPath, _ := cmd.Flags().GetString("config")
	ctx, err := runtime.GetContext(cmd.Context(), configPath, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer ctx.Close()

	keys, err := ctx.Store().Keys(ctx.Context)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}
