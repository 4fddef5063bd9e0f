package actions

import (
	"github.com/atareao/crypta/internal/git"
	"github.com/atareao/crypta/internal/runtime"
)

// StatusAction reports pending changes and unpublished commits without contacting the remote
func StatusAction(ctx *runtime.Context) error {
	splog := ctx.Splog

	repo, err := git.Open(ctx.Config.SecretsDir)
	if err != nil {
		return err
	}
	changes, err := repo.Status()
	if err != nil {
		return err
	}
	published, err := repo.IsPublished()
	if err != nil {
		return err
	}

	if changes.IsClean() && published {
		splog.Success("Nothing to sync, everything is up to date.")
		return nil
	}

	for _, change := range changes {
		splog.Page(string(change.Kind) + "\t" + change.Path + "\n")
	}
	if !published {
		splog.Info("Local commits are not on %s yet.", git.RemoteName)
	}
	splog.Tip("Run 'crypta sync' to publish.")
	return nil
}
