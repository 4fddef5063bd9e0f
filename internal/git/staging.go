package git

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// stageAll records every changed path in the index, deletions included
func (r *Repository) stageAll(wt *git.Worktree) ([]string, error) {
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrStatus, err)
	}

	paths := make([]string, 0, len(st))
	for path, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		// Add removes the index entry when the file is gone from disk
		if _, err := wt.Add(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", cryptaerrors.ErrStage, path, err)
		}
	}
	return paths, nil
}
