package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// PushResult describes the remote branch after a push
type PushResult struct {
	Head     plumbing.Hash
	UpToDate bool // the remote already had the local tip
}

// Push uploads the local branch to the remote branch of the same name.
// The update must be a fast-forward; the remote-tracking ref follows on success.
func (rm *Remote) Push(ctx context.Context, repo *Repository) (PushResult, error) {
	tip, ok, err := repo.BranchTip()
	if err != nil {
		return PushResult{}, err
	}
	if !ok {
		return PushResult{}, fmt.Errorf("%w: nothing to push", cryptaerrors.ErrNoParent)
	}

	url, err := repo.RemoteURL()
	if err != nil {
		return PushResult{}, classifyTransportError("push", err)
	}
	auth, err := rm.authFor(url)
	if err != nil {
		return PushResult{}, classifyTransportError("push", err)
	}
	defer releaseAuth(auth)

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{pushRefSpec},
		Auth:       auth,
	})

	result := PushResult{Head: tip}
	switch {
	case err == nil:
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		result.UpToDate = true
	default:
		return PushResult{}, classifyTransportError("push", err)
	}

	if err := repo.setRef(RemoteTrackingRef, tip); err != nil {
		return PushResult{}, err
	}
	return result, nil
}
