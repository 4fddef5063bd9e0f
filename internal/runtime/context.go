package runtime

import (
	"context"

	"github.com/atareao/crypta/internal/config"
	"github.com/atareao/crypta/internal/git"
	"github.com/atareao/crypta/internal/output"
	"github.com/atareao/crypta/internal/secrets"
	"github.com/atareao/crypta/internal/sync"
)

// Context provides access to configuration, output and the external tools for commands
type Context struct {
	Context   context.Context
	Config    *config.Config
	Splog     *output.Splog
	Cipher    secrets.Cipher
	Clipboard secrets.Clipboard
	Keygen    secrets.KeyGenerator
}

// NewContext creates a new context
func NewContext(ctx context.Context, cfg *config.Config, splog *output.Splog) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context:   ctx,
		Config:    cfg,
		Splog:     splog,
		Cipher:    secrets.NewSopsCipher(),
		Clipboard: secrets.SystemClipboard{},
		Keygen:    secrets.NewAgeKeygen(),
	}
}

// GetContext loads the configuration at configPath (or the default location)
// and sets up console and file logging
func GetContext(ctx context.Context, configPath string, debug bool) (*Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	splog, err := output.NewSplogWithConfig(cfg.Log.File, debug)
	if err != nil {
		splog, _ = output.NewSplogWithConfig("", debug)
		splog.Warn("File logging disabled: %v", err)
	}
	splog.Debug("Using secrets directory %s", cfg.SecretsDir)
	return NewContext(ctx, cfg, splog), nil
}

// Store returns the secret store for the configured secrets file
func (c *Context) Store() *secrets.Store {
	return secrets.NewStore(c.Config.SecretsPath(), c.Cipher)
}

// Engine returns a sync engine authenticating with the configured SSH settings
func (c *Context) Engine() *sync.Engine {
	remote := git.NewRemote(c.Config.Resolver(c.Splog))
	return sync.NewEngine(remote, sync.WithSplog(c.Splog))
}

// Close flushes and closes the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
