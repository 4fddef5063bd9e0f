// Package auth resolves SSH credentials for the origin remote.
//
// Candidates are tried in a fixed order: the unencrypted private keys under the
// SSH directory (id_ed25519, id_rsa, id_ecdsa), then the identities held by the
// SSH agent. Nothing is cached; every SSH connection resolves again.
package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
	"github.com/atareao/crypta/internal/output"
)

// DefaultUsername is used when neither the URL nor the caller names a user
const DefaultUsername = "git"

// DefaultKeyNames returns the private key file names tried, in priority order
func DefaultKeyNames() []string {
	return []string{"id_ed25519", "id_rsa", "id_ecdsa"}
}

// Method is the kind of credential that was selected
type Method string

const (
	MethodKey   Method = "key"
	MethodAgent Method = "agent"
)

// Credential is the outcome of one resolution
type Credential struct {
	Method   Method
	Source   string // key path, or "ssh-agent"
	Username string
	auth     gitssh.AuthMethod
	closer   io.Closer
}

// AuthMethod returns the go-git SSH auth method backing the credential
func (c *Credential) AuthMethod() gitssh.AuthMethod {
	return c.auth
}

// Close releases the agent connection held by the credential, if any.
// Closing twice is a no-op.
func (c *Credential) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func (c *Credential) String() string {
	return fmt.Sprintf("%s %s as %s", c.Method, c.Source, c.Username)
}

// Provider resolves a credential for a remote URL
type Provider interface {
	Resolve(remoteURL, usernameHint string) (*Credential, error)
}

// Resolver tries the configured key files and then the SSH agent
type Resolver struct {
	sshDir   string
	keyNames []string
	username string
	keys     KeyLoader
	agent    AgentDialer
	splog    *output.Splog
}

// Option configures a Resolver
type Option func(*Resolver)

// WithSSHDir sets the directory holding the private keys
func WithSSHDir(dir string) Option {
	return func(r *Resolver) { r.sshDir = dir }
}

// WithKeyNames replaces the key file names tried, in priority order
func WithKeyNames(names ...string) Option {
	return func(r *Resolver) { r.keyNames = names }
}

// WithUsername sets the username used when the remote URL names none
func WithUsername(user string) Option {
	return func(r *Resolver) { r.username = user }
}

// WithKeyLoader replaces how key files are turned into auth methods
func WithKeyLoader(l KeyLoader) Option {
	return func(r *Resolver) { r.keys = l }
}

// WithAgent replaces how the SSH agent is reached. A nil dialer disables the agent.
func WithAgent(d AgentDialer) Option {
	return func(r *Resolver) { r.agent = d }
}

// WithSplog logs every candidate tried
func WithSplog(splog *output.Splog) Option {
	return func(r *Resolver) { r.splog = splog }
}

// NewResolver creates a Resolver using ~/.ssh, the default key names and the
// agent at SSH_AUTH_SOCK unless overridden by opts
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		keyNames: DefaultKeyNames(),
		keys:     FileKeyLoader{},
		agent:    DialAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sshDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.sshDir = filepath.Join(home, ".ssh")
		}
	}
	if r.splog == nil {
		r.splog = output.NewDiscardSplog()
	}
	return r
}

// Resolve returns the first usable credential for remoteURL
func (r *Resolver) Resolve(remoteURL, usernameHint string) (*Credential, error) {
	if usernameHint == "" {
		usernameHint = r.username
	}
	user := usernameFor(remoteURL, usernameHint)

	tried := make([]string, 0, len(r.keyNames)+1)
	for _, name := range r.keyNames {
		path := filepath.Join(r.sshDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tried = append(tried, path)

		method, err := r.keys.Load(user, path)
		if err != nil {
			r.splog.Debug("Skipping SSH key %s: %v", path, err)
			continue
		}
		r.splog.Debug("Using SSH key %s for %s", path, user)
		return &Credential{Method: MethodKey, Source: path, Username: user, auth: method}, nil
	}

	if r.agent != nil {
		tried = append(tried, "ssh-agent")
		method, conn, err := agentAuth(r.agent, user)
		if err == nil {
			r.splog.Debug("Using ssh-agent for %s", user)
			return &Credential{Method: MethodAgent, Source: "ssh-agent", Username: user, auth: method, closer: conn}, nil
		}
		r.splog.Debug("Skipping ssh-agent: %v", err)
	}

	if len(tried) == 0 {
		return nil, fmt.Errorf("%w: no key in %s and no ssh-agent", cryptaerrors.ErrNoCredentialAvailable, r.sshDir)
	}
	return nil, fmt.Errorf("%w: tried %s", cryptaerrors.ErrNoCredentialAvailable, strings.Join(tried, ", "))
}

// AuthMethod returns a go-git auth method that resolves on every SSH connection
func (r *Resolver) AuthMethod(remoteURL string) (transport.AuthMethod, error) {
	return NewChallengeAuth(r, remoteURL, r.username), nil
}

// usernameFor prefers the user named in the URL, then the hint, then DefaultUsername
func usernameFor(remoteURL, hint string) string {
	if ep, err := transport.NewEndpoint(remoteURL); err == nil && ep.User != "" {
		return ep.User
	}
	if hint != "" {
		return hint
	}
	return DefaultUsername
}
