package actions

import (
	"fmt"

	"github.com/atareao/crypta/internal/runtime"
)

// SetAction stores value under key
func SetAction(ctx *runtime.Context, key, value string) error {
	store := ctx.Store()
	if !store.Exists() {
		ctx.Splog.Debug("Creating %s", store.Path())
	}
	if err := store.Set(ctx.Context, key, value); err != nil {
		return err
	}
	ctx.Splog.Success("Secret '%s' saved.", key)
	return nil
}

// GetAction copies the value of key to the clipboard
func GetAction(ctx *runtime.Context, key string) error {
	value, err := ctx.Store().Get(ctx.Context, key)
	if err != nil {
		return err
	}
	if err := ctx.Clipboard.WriteAll(value); err != nil {
		return fmt.Errorf("failed to copy to the clipboard: %w", err)
	}
	ctx.Splog.Info("📋 Secret '%s' copied to the clipboard.", key)
	return nil
}

// LookupAction prints the value of key
func LookupAction(ctx *runtime.Context, key string) error {
	value, err := ctx.Store().Get(ctx.Context, key)
	if err != nil {
		return err
	}
	ctx.Splog.Page(value + "\n")
	return nil
}

// ListAction prints every key of the secrets file
func ListAction(ctx *runtime.Context) error {
	store := ctx.Store()
	keys, err := store.Keys(ctx.Context)
	if err != nil {
		return err
	}

	ctx.Splog.Info("🔑 Keys in %s:", store.Path())
	for _, key := range keys {
		ctx.Splog.Page(key + "\n")
	}
	return nil
}

// DeleteOptions contains options for the delete command
type DeleteOptions struct {
	Key     string
	Yes     bool
	Confirm Confirmer // nil asks on the terminal
}

// DeleteAction removes a key after confirmation
func DeleteAction(ctx *runtime.Context, opts DeleteOptions) error {
	if !opts.Yes {
		confirm := opts.Confirm
		if confirm == nil {
			confirm = promptConfirm
		}
		ok, err := confirm(fmt.Sprintf("Delete secret '%s'?", opts.Key))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Splog.Info("Nothing deleted.")
			return nil
		}
	}

	if err := ctx.Store().Delete(ctx.Context, opts.Key); err != nil {
		return err
	}
	ctx.Splog.Info("🗑️ Secret '%s' deleted.", opts.Key)
	return nil
}
