package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

const (
	// RemoteName is the only remote crypta synchronizes with
	RemoteName = "origin"
	// BranchName is the only branch crypta synchronizes, locally and remotely
	BranchName = "main"
)

var (
	// BranchRef is the full name of the synchronized branch
	BranchRef = plumbing.NewBranchReferenceName(BranchName)
	// RemoteTrackingRef records the last known tip of the remote branch
	RemoteTrackingRef = plumbing.NewRemoteReferenceName(RemoteName, BranchName)
)

// Repository wraps a go-git repository
type Repository struct {
	*git.Repository
	path string
}

// Open opens the git working directory at path.
// The path itself must hold the version-control metadata; parent directories are not searched.
func Open(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpen(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", cryptaerrors.ErrNotARepository, absPath, err)
	}

	if _, err := repo.Worktree(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", cryptaerrors.ErrNotARepository, absPath, err)
	}

	return &Repository{
		Repository: repo,
		path:       absPath,
	}, nil
}

// OpenStorage opens a repository backed by an arbitrary storer and worktree filesystem
func OpenStorage(s storage.Storer, worktree billy.Filesystem) (*Repository, error) {
	repo, err := git.Open(s, worktree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrNotARepository, err)
	}

	return &Repository{
		Repository: repo,
		path:       worktree.Root(),
	}, nil
}

// Init creates a repository at path with HEAD on the synchronized branch.
// When remoteURL is not empty it is registered as the origin remote.
// An existing repository is opened and its origin is added if missing.
func Init(path string, remoteURL string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	var r *Repository
	repo, err := git.PlainInit(absPath, false)
	switch {
	case err == nil:
		r = &Repository{Repository: repo, path: absPath}
		if err := r.pointHeadAtBranch(); err != nil {
			return nil, err
		}
	case errors.Is(err, git.ErrRepositoryAlreadyExists):
		r, err = Open(absPath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	if remoteURL != "" {
		if err := r.ensureRemote(remoteURL); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// InitStorage initializes a repository on the given storer and worktree filesystem
func InitStorage(s storage.Storer, worktree billy.Filesystem) (*Repository, error) {
	repo, err := git.Init(s, worktree)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	r := &Repository{Repository: repo, path: worktree.Root()}
	if err := r.pointHeadAtBranch(); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns the root directory of the working tree
func (r *Repository) Root() string {
	return r.path
}

// RemoteURL returns the first URL configured for the origin remote
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.Remote(RemoteName)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", RemoteName, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", RemoteName)
	}
	return urls[0], nil
}

// BranchTip returns the commit the synchronized branch points at.
// ok is false when the branch does not exist yet.
func (r *Repository) BranchTip() (hash plumbing.Hash, ok bool, err error) {
	return r.refHash(BranchRef)
}

// RemoteTip returns the last fetched or pushed tip of the remote branch.
// ok is false when nothing was ever fetched or pushed.
func (r *Repository) RemoteTip() (hash plumbing.Hash, ok bool, err error) {
	return r.refHash(RemoteTrackingRef)
}

// IsPublished reports whether every local commit is already known to be on the remote
func (r *Repository) IsPublished() (bool, error) {
	local, ok, err := r.BranchTip()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	remote, ok, err := r.RemoteTip()
	if err != nil {
		return false, err
	}
	return ok && remote == local, nil
}

// checkHead fails unless HEAD is attached to the synchronized branch
func (r *Repository) checkHead() error {
	head, err := r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}

	if head.Type() != plumbing.SymbolicReference {
		return fmt.Errorf("%w: HEAD is detached at %s", cryptaerrors.ErrWrongBranch, head.Hash())
	}
	if head.Target() != BranchRef {
		return fmt.Errorf("%w: HEAD points at %s", cryptaerrors.ErrWrongBranch, head.Target().Short())
	}
	return nil
}

// hasCommits reports whether any branch or remote-tracking ref exists
func (r *Repository) hasCommits() (bool, error) {
	refs, err := r.References()
	if err != nil {
		return false, fmt.Errorf("failed to list references: %w", err)
	}
	defer refs.Close()

	found := false
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && (ref.Name().IsBranch() || ref.Name().IsRemote()) {
			found = true
			return errStopIter
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIter) {
		return false, fmt.Errorf("failed to iterate references: %w", err)
	}
	return found, nil
}

var errStopIter = errors.New("stop iteration")

func (r *Repository) refHash(name plumbing.ReferenceName) (plumbing.Hash, bool, error) {
	ref, err := r.Reference(name, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return ref.Hash(), true, nil
}

func (r *Repository) setRef(name plumbing.ReferenceName, hash plumbing.Hash) error {
	if err := r.Storer.SetReference(plumbing.NewHashReference(name, hash)); err != nil {
		return fmt.Errorf("failed to update %s: %w", name, err)
	}
	return nil
}

func (r *Repository) pointHeadAtBranch() error {
	head := plumbing.NewSymbolicReference(plumbing.HEAD, BranchRef)
	if err := r.Storer.SetReference(head); err != nil {
		return fmt.Errorf("failed to point HEAD at %s: %w", BranchName, err)
	}
	return nil
}

func (r *Repository) ensureRemote(url string) error {
	if _, err := r.Remote(RemoteName); err == nil {
		return nil
	} else if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("failed to get remote %s: %w", RemoteName, err)
	}

	_, err := r.CreateRemote(&config.RemoteConfig{
		Name: RemoteName,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %w", RemoteName, err)
	}
	return nil
}
