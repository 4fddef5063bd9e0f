package auth

import (
	"errors"
	"fmt"
	"io"

	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh/agent"
)

var errAgentEmpty = errors.New("ssh-agent holds no identities")

// AgentDialer connects to an SSH agent
type AgentDialer func() (agent.Agent, io.Closer, error)

// DialAgent connects to the agent at SSH_AUTH_SOCK (or Pageant on Windows)
func DialAgent() (agent.Agent, io.Closer, error) {
	if !sshagent.Available() {
		return nil, nil, errors.New("ssh-agent is not available")
	}
	a, conn, err := sshagent.New()
	if err != nil {
		return nil, nil, err
	}
	if conn == nil {
		return a, nil, nil
	}
	return a, conn, nil
}

// agentAuth returns agent-backed auth when the agent holds at least one identity.
// The returned connection serves the signers of the SSH session and must be
// closed by the caller once that session is over.
func agentAuth(dial AgentDialer, user string) (gitssh.AuthMethod, io.Closer, error) {
	a, conn, err := dial()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach ssh-agent: %w", err)
	}

	keys, err := a.List()
	if err != nil {
		closeQuietly(conn)
		return nil, nil, fmt.Errorf("failed to list ssh-agent identities: %w", err)
	}
	if len(keys) == 0 {
		closeQuietly(conn)
		return nil, nil, errAgentEmpty
	}

	return &gitssh.PublicKeysCallback{
		User:     user,
		Callback: a.Signers,
	}, conn, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
