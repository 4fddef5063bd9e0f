package git

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// ChangeKind classifies a working tree change
type ChangeKind string

const (
	ChangeUntracked ChangeKind = "untracked"
	ChangeAdded     ChangeKind = "added"
	ChangeModified  ChangeKind = "modified"
	ChangeDeleted   ChangeKind = "deleted"
)

// FileChange is one changed path relative to the repository root
type FileChange struct {
	Path string
	Kind ChangeKind
}

// WorkingTreeStatus lists the changed paths, sorted by path
type WorkingTreeStatus []FileChange

// IsClean reports whether nothing changed
func (s WorkingTreeStatus) IsClean() bool {
	return len(s) == 0
}

// Paths returns the changed paths
func (s WorkingTreeStatus) Paths() []string {
	paths := make([]string, len(s))
	for i, c := range s {
		paths[i] = c.Path
	}
	return paths
}

// Count returns how many changes have the given kind
func (s WorkingTreeStatus) Count(kind ChangeKind) int {
	n := 0
	for _, c := range s {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Status enumerates new, modified and deleted paths, staged or not.
// Ignored files are excluded.
func (r *Repository) Status() (WorkingTreeStatus, error) {
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrStatus, err)
	}

	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrStatus, err)
	}

	changes := make(WorkingTreeStatus, 0, len(st))
	for path, fs := range st {
		kind, changed := classify(fs)
		if !changed {
			continue
		}
		changes = append(changes, FileChange{Path: path, Kind: kind})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}

// classify folds the staging and worktree codes into one kind; the worktree code wins
func classify(fs *git.FileStatus) (ChangeKind, bool) {
	code := fs.Worktree
	if code == git.Unmodified {
		code = fs.Staging
	}

	switch code {
	case git.Unmodified:
		return "", false
	case git.Untracked:
		return ChangeUntracked, true
	case git.Added:
		return ChangeAdded, true
	case git.Deleted:
		if fs.Staging == git.Added {
			// added to the index then removed from disk: nothing to record
			return "", false
		}
		return ChangeDeleted, true
	default:
		if fs.Staging == git.Added {
			return ChangeAdded, true
		}
		return ChangeModified, true
	}
}
