package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/atareao/crypta/internal/actions"
	"github.com/atareao/crypta/internal/cli/helpers"
	"github.com/atareao/crypta/internal/runtime"
	"github.com/atareao/crypta/internal/secrets"
	"github.com/atareao/crypta/internal/utils"
)

// newSetCmd creates the set command
func newSetCmd() *cobra.Command {
	var key, value string

	cmd := &cobra.Command{
		Use:     "set [KEY] VALUE",
		Aliases: []string{"se"},
		Short:   "Encrypt a value under a key",
		Long: `Encrypt a value under a key of the secrets file, creating the file if needed.

The key may come from --key, the first argument or $SECRET_ID.`,
		Args:              cobra.MaximumNArgs(2),
		ValidArgsFunction: helpers.CompleteKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("value") {
				if len(args) == 0 {
					return errors.New("missing value")
				}
				value = args[len(args)-1]
				args = args[:len(args)-1]
			}
			k, err := resolveKey(key, args)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.SetAction(ctx, k, value)
			})
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Key of the secret")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Value of the secret")

	return cmd
}

// newStoreCmd creates the store command
func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "store [KEY]",
		Aliases:           []string{"s"},
		Short:             "Encrypt the value read from stdin under a key",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secrets.ResolveKey(args)
			if err != nil {
				return err
			}
			value, err := utils.ReadPiped(os.Stdin)
			if err != nil {
				return err
			}
			if value == "" {
				return errors.New("no value on stdin")
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.SetAction(ctx, k, value)
			})
		},
	}

	return cmd
}

// newGetCmd creates the get command
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get [KEY]",
		Aliases:           []string{"g"},
		Short:             "Copy a secret to the clipboard",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secrets.ResolveKey(args)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.GetAction(ctx, k)
			})
		},
	}
}

// newLookupCmd creates the lookup command
func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "lookup [KEY]",
		Aliases:           []string{"l"},
		Short:             "Print a secret",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secrets.ResolveKey(args)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.LookupAction(ctx, k)
			})
		},
	}
}

// newListCmd creates the list command
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the keys of the secrets file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, actions.ListAction)
		},
	}
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete [KEY]",
		Aliases: []string{"rm"},
		Short:   "Remove a secret",
		Long: `Remove a secret from the secrets file.

Asks for confirmation unless --yes is given. Without a terminal, --yes is required.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secrets.ResolveKey(args)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.DeleteAction(ctx, actions.DeleteOptions{Key: k, Yes: yes})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}

// resolveKey prefers the --key flag over arguments and $SECRET_ID
func resolveKey(flag string, args []string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return secrets.ResolveKey(args)
}
