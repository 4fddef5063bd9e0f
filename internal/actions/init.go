package actions

import (
	"os"

	"github.com/atareao/crypta/internal/git"
	"github.com/atareao/crypta/internal/runtime"
	"github.com/atareao/crypta/internal/secrets"
)

// InitOptions contains options for the init command
type InitOptions struct {
	Remote string
}

// InitAction prepares the secrets directory: encryption key, sops rules and
// a git repository on main, optionally wired to an origin remote
func InitAction(ctx *runtime.Context, opts InitOptions) error {
	splog := ctx.Splog
	dir := ctx.Config.SecretsDir

	result, err := secrets.Bootstrap(ctx.Context, dir, ctx.Keygen)
	if err != nil {
		return err
	}
	if result.CreatedDir {
		splog.Info("📁 Created %s", dir)
	}
	if result.CreatedKey {
		splog.Info("🔑 Generated age key %s", result.AgeKeyPath)
	} else {
		splog.Info("🔑 Using age key %s", result.AgeKeyPath)
	}
	if result.CreatedConfig {
		splog.Info("📄 Wrote %s", result.SopsConfigPath)
	}

	repo, err := git.Init(dir, opts.Remote)
	if err != nil {
		return err
	}
	if url, err := repo.RemoteURL(); err == nil {
		if opts.Remote != "" && url != opts.Remote {
			splog.Warn("origin already points at %s, leaving it unchanged", url)
		}
		splog.Info("🔗 Syncing with %s", url)
	} else {
		splog.Tip("No remote yet. Run 'crypta init --remote <url>' to add one.")
	}

	if os.Getenv("SOPS_AGE_KEY_FILE") == "" {
		splog.Warn("SOPS_AGE_KEY_FILE is not set")
		splog.Tip("Add this to your shell profile: export SOPS_AGE_KEY_FILE=%s", result.AgeKeyPath)
	}

	splog.Success("Initialization completed.")
	return nil
}
