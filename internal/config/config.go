package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atareao/crypta/internal/auth"
	cryptaerrors "github.com/atareao/crypta/internal/errors"
	"github.com/atareao/crypta/internal/output"
)

const (
	// DefaultSecretsFile is the secrets file name inside the secrets directory
	DefaultSecretsFile = "secrets.yml"

	envConfig     = "CRYPTA_CONFIG"
	envSecretsDir = "CRYPTA_SECRETS_DIR"
)

// Config is the crypta configuration
type Config struct {
	SecretsDir  string    `yaml:"secrets_dir"`
	SecretsFile string    `yaml:"secrets_file"`
	SSH         SSHConfig `yaml:"ssh"`
	Log         LogConfig `yaml:"log"`

	path string
}

// SSHConfig selects the credentials offered to the remote
type SSHConfig struct {
	Dir  string   `yaml:"dir"`
	Keys []string `yaml:"keys"`
	User string   `yaml:"user"`
}

// LogConfig configures the rotated log file
type LogConfig struct {
	File string `yaml:"file"`
}

// DefaultPath returns CRYPTA_CONFIG or ~/.config/crypta/config.yaml
func DefaultPath() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "crypta", "config.yaml")
	}
	return filepath.Join(home, ".config", "crypta", "config.yaml")
}

// Load reads the configuration at path, or at DefaultPath when path is empty.
// Only a missing file at the default location falls back to the defaults.
func Load(path string) (*Config, error) {
	explicit := path != "" || os.Getenv(envConfig) != ""
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", cryptaerrors.ErrInvalidConfig, path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg.path = ""
	default:
		return nil, fmt.Errorf("%w: failed to read %s: %v", cryptaerrors.ErrInvalidConfig, path, err)
	}

	if dir := os.Getenv(envSecretsDir); dir != "" {
		cfg.SecretsDir = dir
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.SecretsDir == "" {
		c.SecretsDir = filepath.Join(home, ".secrets")
	}
	if c.SecretsFile == "" {
		c.SecretsFile = DefaultSecretsFile
	}
	if c.SSH.Dir == "" {
		c.SSH.Dir = filepath.Join(home, ".ssh")
	}
	if len(c.SSH.Keys) == 0 {
		c.SSH.Keys = auth.DefaultKeyNames()
	}
	if c.Log.File == "" {
		c.Log.File = output.GetLogFilePath()
	}

	c.SecretsDir = expandPath(c.SecretsDir, home)
	c.SSH.Dir = expandPath(c.SSH.Dir, home)
	c.Log.File = expandPath(c.Log.File, home)
	c.SSH.User = os.ExpandEnv(c.SSH.User)
	return nil
}

// Validate checks that every value can be used as is
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.SecretsDir) {
		return fmt.Errorf("%w: secrets_dir must be an absolute path: %q", cryptaerrors.ErrInvalidConfig, c.SecretsDir)
	}
	if err := validateFileName("secrets_file", c.SecretsFile); err != nil {
		return err
	}
	if !filepath.IsAbs(c.SSH.Dir) {
		return fmt.Errorf("%w: ssh.dir must be an absolute path: %q", cryptaerrors.ErrInvalidConfig, c.SSH.Dir)
	}
	if len(c.SSH.Keys) == 0 {
		return fmt.Errorf("%w: ssh.keys must name at least one key", cryptaerrors.ErrInvalidConfig)
	}
	for _, key := range c.SSH.Keys {
		if err := validateFileName("ssh.keys", key); err != nil {
			return err
		}
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		return fmt.Errorf("%w: log.file must be an absolute path: %q", cryptaerrors.ErrInvalidConfig, c.Log.File)
	}
	return nil
}

// Path returns the file the configuration was read from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// SecretsPath returns the full path of the secrets file
func (c *Config) SecretsPath() string {
	return filepath.Join(c.SecretsDir, c.SecretsFile)
}

// Resolver returns a credential resolver for the configured SSH settings
func (c *Config) Resolver(splog *output.Splog) *auth.Resolver {
	return auth.NewResolver(
		auth.WithSSHDir(c.SSH.Dir),
		auth.WithKeyNames(c.SSH.Keys...),
		auth.WithUsername(c.SSH.User),
		auth.WithSplog(splog),
	)
}

func validateFileName(field, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %s must be a plain file name: %q", cryptaerrors.ErrInvalidConfig, field, name)
	}
	return nil
}

// expandPath expands ${VAR} references and a leading ~
func expandPath(p, home string) string {
	p = os.ExpandEnv(p)
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
