package cli

import (
	"github.com/spf13/cobra"

	"github.com/atareao/crypta/internal/actions"
	"github.com/atareao/crypta/internal/cli/helpers"
	"github.com/atareao/crypta/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync [message]",
		Aliases: []string{"sy"},
		Short:   "Commit local changes and synchronize with the remote",
		Long: `Commit every change of the secrets directory, fetch the remote, replay the local
commits on top of it and push the result.

When nothing changed and every commit is already on the remote, the remote is
not contacted. The commit message defaults to "Sync secrets".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := ""
			if len(args) > 0 {
				message = args[0]
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.SyncAction(ctx, actions.SyncOptions{Message: message})
			})
		},
	}

	return cmd
}

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the next sync would publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, actions.StatusAction)
		},
	}
}

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Prepare the secrets directory",
		Long: `Prepare the secrets directory: generate an age key if there is none, write the
sops creation rules and initialize a git repository on branch main.

Running init again keeps the existing key, rules and remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.InitAction(ctx, actions.InitOptions{Remote: remote})
			})
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "", "URL of the origin remote")

	return cmd
}
