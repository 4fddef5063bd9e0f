package git

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// CommitRecord describes a commit crypta created
type CommitRecord struct {
	Hash    plumbing.Hash
	Parent  plumbing.Hash // zero for the initial commit
	Tree    plumbing.Hash
	Message string
	Author  object.Signature
	Paths   []string
}

// IsInitial reports whether the commit has no parent
func (c CommitRecord) IsInitial() bool {
	return c.Parent.IsZero()
}

// CommitAll stages every change in the working tree and commits it on the
// synchronized branch with id as author and committer.
// An empty message is replaced with DefaultCommitMessage.
func (r *Repository) CommitAll(id Identity, message string, when time.Time) (CommitRecord, error) {
	if err := r.checkHead(); err != nil {
		return CommitRecord{}, err
	}

	parent, ok, err := r.BranchTip()
	if err != nil {
		return CommitRecord{}, fmt.Errorf("%w: %v", cryptaerrors.ErrNoParent, err)
	}
	if !ok {
		// an unborn branch is only legitimate on a repository without history
		hasCommits, err := r.hasCommits()
		if err != nil {
			return CommitRecord{}, err
		}
		if hasCommits {
			return CommitRecord{}, fmt.Errorf("%w: %s is unborn but other refs exist", cryptaerrors.ErrNoParent, BranchName)
		}
	}

	wt, err := r.Worktree()
	if err != nil {
		return CommitRecord{}, fmt.Errorf("%w: %v", cryptaerrors.ErrStage, err)
	}

	paths, err := r.stageAll(wt)
	if err != nil {
		return CommitRecord{}, err
	}
	if len(paths) == 0 {
		return CommitRecord{}, cryptaerrors.ErrNothingToCommit
	}

	message = messageOrDefault(message)
	sig := id.Signature(when)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return CommitRecord{}, cryptaerrors.ErrNothingToCommit
		}
		return CommitRecord{}, fmt.Errorf("failed to commit: %w", err)
	}

	commit, err := r.CommitObject(hash)
	if err != nil {
		return CommitRecord{}, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}

	return CommitRecord{
		Hash:    hash,
		Parent:  parent,
		Tree:    commit.TreeHash,
		Message: commit.Message,
		Author:  commit.Author,
		Paths:   paths,
	}, nil
}

// FirstParentLog returns the commits reachable from the synchronized branch
// by following first parents, newest first. limit <= 0 means no limit.
func (r *Repository) FirstParentLog(limit int) ([]*object.Commit, error) {
	tip, ok, err := r.BranchTip()
	if err != nil || !ok {
		return nil, err
	}

	var log []*object.Commit
	hash := tip
	for !hash.IsZero() {
		if limit > 0 && len(log) == limit {
			break
		}
		commit, err := r.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
		}
		log = append(log, commit)
		hash = plumbing.ZeroHash
		if commit.NumParents() > 0 {
			hash = commit.ParentHashes[0]
		}
	}
	return log, nil
}
