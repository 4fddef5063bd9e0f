package auth

import (
	"fmt"
	"io"

	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
)

// ChallengeAuthName is the name go-git reports for ChallengeAuth
const ChallengeAuthName = "crypta-challenge"

// ChallengeAuth is a go-git SSH auth method that asks its Provider for a
// credential each time a connection is opened
type ChallengeAuth struct {
	provider Provider
	url      string
	user     string
	last     *Credential
}

var (
	_ gitssh.AuthMethod = (*ChallengeAuth)(nil)
	_ io.Closer         = (*ChallengeAuth)(nil)
)

// NewChallengeAuth creates a ChallengeAuth for remoteURL
func NewChallengeAuth(provider Provider, remoteURL, usernameHint string) *ChallengeAuth {
	return &ChallengeAuth{provider: provider, url: remoteURL, user: usernameHint}
}

// Name implements transport.AuthMethod
func (a *ChallengeAuth) Name() string {
	return ChallengeAuthName
}

func (a *ChallengeAuth) String() string {
	if a.last == nil {
		return fmt.Sprintf("%s: unresolved", a.Name())
	}
	return fmt.Sprintf("%s: %s", a.Name(), a.last)
}

// Last returns the credential selected by the latest challenge, if any
func (a *ChallengeAuth) Last() *Credential {
	return a.last
}

// ClientConfig resolves a credential and returns its SSH client configuration.
// The credential of the previous connection is released first.
func (a *ChallengeAuth) ClientConfig() (*ssh.ClientConfig, error) {
	if a.last != nil {
		_ = a.last.Close()
	}
	cred, err := a.provider.Resolve(a.url, a.user)
	if err != nil {
		return nil, err
	}
	a.last = cred
	return cred.auth.ClientConfig()
}

// Close releases the credential of the latest connection
func (a *ChallengeAuth) Close() error {
	if a.last == nil {
		return nil
	}
	return a.last.Close()
}
