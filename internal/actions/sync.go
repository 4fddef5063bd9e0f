package actions

import (
	"errors"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
	"github.com/atareao/crypta/internal/runtime"
	"github.com/atareao/crypta/internal/sync"
)

// SyncOptions contains options for the sync command
type SyncOptions struct {
	Message string
}

// SyncAction publishes local edits of the secrets directory and pulls in remote ones
func SyncAction(ctx *runtime.Context, opts SyncOptions) error {
	splog := ctx.Splog

	result, err := ctx.Engine().Sync(ctx.Context, ctx.Config.SecretsDir, opts.Message)
	if err != nil {
		syncTip(ctx, err)
		return err
	}

	if result.Status == sync.UpToDate {
		splog.Success("Nothing to sync, everything is up to date.")
		return nil
	}
	splog.Info("🚀 Synchronization completed.")
	return nil
}

func syncTip(ctx *runtime.Context, err error) {
	splog := ctx.Splog
	switch {
	case errors.Is(err, cryptaerrors.ErrNotARepository):
		splog.Tip("Run 'crypta init --remote <url>' to set up %s.", ctx.Config.SecretsDir)
	case errors.Is(err, cryptaerrors.ErrRebaseConflict):
		splog.Tip("The remote changed the same secrets. Your commit is kept in %s; reconcile it with git and sync again.", ctx.Config.SecretsDir)
	case errors.Is(err, cryptaerrors.ErrNonFastForward):
		splog.Tip("The remote moved while syncing. Run 'crypta sync' again.")
	case errors.Is(err, cryptaerrors.ErrAuth):
		splog.Tip("Put an unencrypted key in %s or load one into ssh-agent.", ctx.Config.SSH.Dir)
	case errors.Is(err, cryptaerrors.ErrNetwork):
		splog.Tip("Local changes are committed. Run 'crypta sync' again once the remote is reachable.")
	}
}
