package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// FetchResult describes the remote branch after a fetch
type FetchResult struct {
	RemoteTip   plumbing.Hash
	Updated     bool // the remote-tracking ref moved
	RemoteEmpty bool // the remote has no synchronized branch yet
}

// Fetch downloads the remote branch into the remote-tracking ref
func (rm *Remote) Fetch(ctx context.Context, repo *Repository) (FetchResult, error) {
	url, err := repo.RemoteURL()
	if err != nil {
		return FetchResult{}, classifyTransportError("fetch", err)
	}
	auth, err := rm.authFor(url)
	if err != nil {
		return FetchResult{}, classifyTransportError("fetch", err)
	}
	defer releaseAuth(auth)

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{fetchRefSpec},
		Auth:       auth,
	})

	var result FetchResult
	switch {
	case err == nil:
		result.Updated = true
	case errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, transport.ErrEmptyRemoteRepository), errors.Is(err, git.NoMatchingRefSpecError{}):
		return FetchResult{RemoteEmpty: true}, nil
	default:
		return FetchResult{}, classifyTransportError("fetch", err)
	}

	tip, ok, err := repo.RemoteTip()
	if err != nil {
		return FetchResult{}, classifyTransportError("fetch", err)
	}
	if !ok {
		return FetchResult{RemoteEmpty: true}, nil
	}
	result.RemoteTip = tip
	return result, nil
}
