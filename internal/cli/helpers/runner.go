package helpers

import (
	"github.com/spf13/cobra"

	"github.com/atareao/crypta/internal/runtime"
)

// Run is a helper that provides a runtime context to a command's execution function
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	ctx, err := runtime.GetContext(cmd.Context(), configPath, debug)
	if err != nil {
		return err
	}
	defer ctx.Close()
	return fn(ctx)
}
