// Package sync reconciles the secrets directory with its origin remote.
//
// A sync runs strictly in order: status, commit of the local changes, fetch,
// rebase of the local commits onto the fetched tip, push. The first failing
// phase stops the run and is reported in a *errors.PhaseError. A commit made
// before a later phase fails is kept; running sync again publishes it.
package sync

import (
	"context"
	"time"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
	"github.com/atareao/crypta/internal/git"
	"github.com/atareao/crypta/internal/output"
)

// Reconciler exchanges the synchronized branch with the remote
type Reconciler interface {
	Fetch(ctx context.Context, repo *git.Repository) (git.FetchResult, error)
	Push(ctx context.Context, repo *git.Repository) (git.PushResult, error)
}

// Status is the overall outcome of a successful sync
type Status int

const (
	// UpToDate means nothing was committed and the remote was not contacted
	UpToDate Status = iota
	// Synchronized means the local branch was published to the remote
	Synchronized
)

func (s Status) String() string {
	switch s {
	case UpToDate:
		return "up to date"
	case Synchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

// Result describes what a sync did
type Result struct {
	Status  Status
	Changes git.WorkingTreeStatus
	Commit  *git.CommitRecord // nil when no local changes were committed
	Fetch   *git.FetchResult
	Rebase  *git.RebaseResult // nil when the remote branch did not exist
	Push    *git.PushResult
}

// Engine runs synchronizations
type Engine struct {
	remote   Reconciler
	identity git.Identity
	splog    *output.Splog
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithIdentity sets the identity used for local commits and rebase replays
func WithIdentity(id git.Identity) Option {
	return func(e *Engine) { e.identity = id }
}

// WithClock sets the time source for commit timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSplog sets where progress is reported
func WithSplog(splog *output.Splog) Option {
	return func(e *Engine) { e.splog = splog }
}

// NewEngine creates an Engine that reaches the remote through remote
func NewEngine(remote Reconciler, opts ...Option) *Engine {
	e := &Engine{
		remote:   remote,
		identity: git.DefaultIdentity(),
		splog:    output.NewDiscardSplog(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync opens the repository at dir and synchronizes it.
// An empty message selects the default commit message.
func (e *Engine) Sync(ctx context.Context, dir, message string) (Result, error) {
	repo, err := git.Open(dir)
	if err != nil {
		return Result{}, cryptaerrors.NewPhaseError(cryptaerrors.PhaseOpen, err)
	}
	return e.SyncRepository(ctx, repo, message)
}

// SyncRepository synchronizes an already opened repository
func (e *Engine) SyncRepository(ctx context.Context, repo *git.Repository, message string) (Result, error) {
	changes, err := repo.Status()
	if err != nil {
		return Result{}, cryptaerrors.NewPhaseError(cryptaerrors.PhaseStatus, err)
	}
	result := Result{Changes: changes}

	if changes.IsClean() {
		published, err := repo.IsPublished()
		if err != nil {
			return result, cryptaerrors.NewPhaseError(cryptaerrors.PhaseStatus, err)
		}
		if published {
			e.splog.Debug("No local changes and nothing left to publish")
			result.Status = UpToDate
			return result, nil
		}
		e.splog.Info("Publishing commits from an earlier sync...")
	} else {
		e.splog.Debug("Committing %d changed path(s)", len(changes))
		record, err := repo.CommitAll(e.identity, message, e.now())
		if err != nil {
			return result, cryptaerrors.NewPhaseError(cryptaerrors.PhaseCommit, err)
		}
		result.Commit = &record
		e.splog.Info("Committed %s: %s", shortHash(record.Hash.String()), record.Message)
	}

	e.splog.Debug("Fetching %s/%s", git.RemoteName, git.BranchName)
	fetch, err := e.remote.Fetch(ctx, repo)
	if err != nil {
		return result, cryptaerrors.NewPhaseError(cryptaerrors.PhaseFetch, err)
	}
	result.Fetch = &fetch

	if fetch.RemoteEmpty {
		e.splog.Debug("%s has no %s branch yet", git.RemoteName, git.BranchName)
	} else {
		rebase, err := repo.Rebase(ctx, e.identity, fetch.RemoteTip, e.now)
		if err != nil {
			return result, cryptaerrors.NewPhaseError(cryptaerrors.PhaseRebase, err)
		}
		result.Rebase = &rebase
		switch {
		case rebase.FastForward:
			e.splog.Info("Fast-forwarded to %s", shortHash(rebase.Head.String()))
		case !rebase.UpToDate:
			e.splog.Info("Replayed %d local commit(s) onto %s", len(rebase.Replayed), shortHash(rebase.Onto.String()))
		}
	}

	e.splog.Debug("Pushing %s to %s", git.BranchName, git.RemoteName)
	push, err := e.remote.Push(ctx, repo)
	if err != nil {
		return result, cryptaerrors.NewPhaseError(cryptaerrors.PhasePush, err)
	}
	result.Push = &push

	result.Status = Synchronized
	return result, nil
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
