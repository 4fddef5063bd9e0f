package git

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

var (
	fetchRefSpec = config.RefSpec(fmt.Sprintf("+%s:%s", BranchRef, RemoteTrackingRef))
	pushRefSpec  = config.RefSpec(fmt.Sprintf("%s:%s", BranchRef, BranchRef))
)

// AuthProvider supplies transport credentials for an SSH remote URL
type AuthProvider interface {
	AuthMethod(remoteURL string) (transport.AuthMethod, error)
}

// Remote fetches from and pushes to the origin remote
type Remote struct {
	auth AuthProvider
}

// NewRemote creates a Remote that authenticates SSH remotes with auth.
// File remotes need no credentials; auth may be nil when only those are used.
func NewRemote(auth AuthProvider) *Remote {
	return &Remote{auth: auth}
}

// authFor selects the credentials for a remote URL by its protocol
func (rm *Remote) authFor(url string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", cryptaerrors.ErrUnsupportedTransport, url, err)
	}

	switch ep.Protocol {
	case "file":
		return nil, nil
	case "ssh":
		if rm.auth == nil {
			return nil, cryptaerrors.ErrNoCredentialAvailable
		}
		return rm.auth.AuthMethod(url)
	default:
		return nil, fmt.Errorf("%w: %s", cryptaerrors.ErrUnsupportedTransport, ep.Protocol)
	}
}

// releaseAuth closes auth methods that hold connections, such as an ssh-agent socket
func releaseAuth(auth transport.AuthMethod) {
	if c, ok := auth.(io.Closer); ok {
		_ = c.Close()
	}
}

// classifyTransportError maps a go-git fetch or push failure to a TransportError
func classifyTransportError(op string, err error) error {
	if errors.Is(err, cryptaerrors.ErrUnsupportedTransport) {
		return err
	}

	kind := cryptaerrors.ErrNetwork
	switch {
	case isAuthError(err):
		kind = cryptaerrors.ErrAuth
	case isNonFastForward(err):
		kind = cryptaerrors.ErrNonFastForward
	}
	return cryptaerrors.NewTransportError(op, RemoteName, kind, err)
}

func isAuthError(err error) bool {
	if errors.Is(err, cryptaerrors.ErrNoCredentialAvailable) ||
		errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no credential available") ||
		strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied (publickey")
}

func isNonFastForward(err error) bool {
	if errors.Is(err, git.ErrNonFastForwardUpdate) || errors.Is(err, git.ErrForceNeeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "fetch first")
}
