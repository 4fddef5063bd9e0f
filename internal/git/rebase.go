package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// RebaseState is the lifecycle position of a Rebase
type RebaseState int

const (
	// RebaseNotStarted is the state right after StartRebase
	RebaseNotStarted RebaseState = iota
	// RebaseInProgress means at least one step was attempted
	RebaseInProgress
	// RebaseFinished means the branch was moved to the replayed tip
	RebaseFinished
	// RebaseAborted means the branch was restored to its original tip
	RebaseAborted
)

func (s RebaseState) String() string {
	switch s {
	case RebaseNotStarted:
		return "not started"
	case RebaseInProgress:
		return "in progress"
	case RebaseFinished:
		return "finished"
	case RebaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("RebaseState(%d)", int(s))
	}
}

// RebaseResult summarizes a completed rebase
type RebaseResult struct {
	OrigHead    plumbing.Hash
	Onto        plumbing.Hash
	Head        plumbing.Hash
	Replayed    []CommitRecord
	Skipped     int  // local commits whose changes were already upstream
	FastForward bool // no local commits, the branch moved to onto
	UpToDate    bool // onto already reachable, nothing changed
}

// Rebase replays the local commits of the synchronized branch on top of a new base.
// The branch ref is only moved by Finish; Abort restores the original tip.
type Rebase struct {
	repo *Repository
	id   Identity
	now  func() time.Time

	onto     plumbing.Hash
	origHead plumbing.Hash
	ops      []*object.Commit
	upToDate bool

	state    RebaseState
	opIndex  int
	base     plumbing.Hash
	replayed []CommitRecord
	skipped  int
	moved    bool
}

// StartRebase plans the replay of the local commits not reachable from onto.
// Commits are replayed oldest first, each keeping its message and taking id as
// author and committer.
func (r *Repository) StartRebase(id Identity, onto plumbing.Hash, now func() time.Time) (*Rebase, error) {
	if err := r.checkHead(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	ontoCommit, err := r.CommitObject(onto)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", cryptaerrors.ErrRebase, onto, err)
	}

	reb := &Rebase{
		repo:  r,
		id:    id,
		now:   now,
		onto:  onto,
		base:  onto,
		state: RebaseNotStarted,
	}

	head, ok, err := r.BranchTip()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	if !ok {
		// unborn branch: adopt onto as-is
		return reb, nil
	}
	reb.origHead = head

	if head == onto {
		reb.upToDate = true
		reb.base = head
		return reb, nil
	}

	headCommit, err := r.CommitObject(head)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", cryptaerrors.ErrRebase, head, err)
	}

	ontoIsAncestor, err := ontoCommit.IsAncestor(headCommit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	if ontoIsAncestor {
		reb.upToDate = true
		reb.base = head
		return reb, nil
	}

	ops, err := r.commitsToReplay(headCommit, ontoCommit)
	if err != nil {
		return nil, err
	}
	reb.ops = ops
	return reb, nil
}

// commitsToReplay walks first parents from head until it reaches a commit
// reachable from onto and returns the walked commits oldest first
func (r *Repository) commitsToReplay(head, onto *object.Commit) ([]*object.Commit, error) {
	upstream := map[plumbing.Hash]struct{}{}
	iter := object.NewCommitPreorderIter(onto, nil, nil)
	err := iter.ForEach(func(c *object.Commit) error {
		upstream[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot walk %s: %v", cryptaerrors.ErrRebase, onto.Hash, err)
	}

	var ops []*object.Commit
	c := head
	for {
		if _, ok := upstream[c.Hash]; ok {
			break
		}
		if c.NumParents() > 1 {
			return nil, fmt.Errorf("%w: %s is a merge commit", cryptaerrors.ErrNonLinearHistory, c.Hash)
		}
		ops = append(ops, c)
		if c.NumParents() == 0 {
			break
		}
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read parent of %s: %v", cryptaerrors.ErrRebase, c.Hash, err)
		}
		c = parent
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops, nil
}

// State returns the lifecycle position
func (rb *Rebase) State() RebaseState {
	return rb.state
}

// OpIndex returns the number of steps already applied
func (rb *Rebase) OpIndex() int {
	return rb.opIndex
}

// Len returns the number of commits to replay
func (rb *Rebase) Len() int {
	return len(rb.ops)
}

// HasNext reports whether a step remains to be applied
func (rb *Rebase) HasNext() bool {
	return (rb.state == RebaseNotStarted || rb.state == RebaseInProgress) && rb.opIndex < len(rb.ops)
}

// Next applies the next step on top of the replayed chain.
// The returned record is nil when the step was already present upstream.
func (rb *Rebase) Next(ctx context.Context) (*CommitRecord, error) {
	if rb.state != RebaseNotStarted && rb.state != RebaseInProgress {
		return nil, fmt.Errorf("%w: rebase is %s", cryptaerrors.ErrRebase, rb.state)
	}
	if rb.opIndex >= len(rb.ops) {
		return nil, fmt.Errorf("%w: no steps left", cryptaerrors.ErrRebase)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rb.state = RebaseInProgress

	op := rb.ops[rb.opIndex]
	record, err := rb.apply(op)
	if err != nil {
		return nil, err
	}

	rb.opIndex++
	if record == nil {
		rb.skipped++
		return nil, nil
	}
	rb.base = record.Hash
	rb.replayed = append(rb.replayed, *record)
	return record, nil
}

func (rb *Rebase) apply(op *object.Commit) (*CommitRecord, error) {
	r := rb.repo

	var parentTree plumbing.Hash
	if op.NumParents() > 0 {
		parent, err := op.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read parent of %s: %v", cryptaerrors.ErrRebase, op.Hash, err)
		}
		parentTree = parent.TreeHash
	}

	parentFiles, err := r.readTree(parentTree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	opFiles, err := r.readTree(op.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	baseCommit, err := r.CommitObject(rb.base)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", cryptaerrors.ErrRebase, rb.base, err)
	}
	baseFiles, err := r.readTree(baseCommit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}

	result, conflict := applyChanges(baseFiles, parentFiles, opFiles)
	if conflict != "" {
		return nil, cryptaerrors.NewRebaseConflictError(op.Hash.String(), conflict)
	}

	treeHash, err := r.writeTree(result)
	if err != nil {
		var clash *pathClashError
		if errors.As(err, &clash) {
			return nil, cryptaerrors.NewRebaseConflictError(op.Hash.String(), clash.path)
		}
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	if treeHash == baseCommit.TreeHash {
		return nil, nil
	}

	sig := rb.id.Signature(rb.now())
	commit := &object.Commit{
		Author:       *sig,
		Committer:    *sig,
		Message:      op.Message,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{rb.base},
	}
	hash, err := r.storeCommit(commit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}

	return &CommitRecord{
		Hash:    hash,
		Parent:  rb.base,
		Tree:    treeHash,
		Message: op.Message,
		Author:  *sig,
		Paths:   changedPaths(parentFiles, opFiles),
	}, nil
}

// applyChanges replays the parent->target change of every path onto base.
// A path whose base entry matches neither side is reported as conflicting.
func applyChanges(base, parent, target fileSet) (fileSet, string) {
	result := base.clone()
	for _, p := range changedPaths(parent, target) {
		pe, inParent := parent[p]
		te, inTarget := target[p]
		be, inBase := base[p]

		switch {
		case sameEntry(be, inBase, pe, inParent):
			if inTarget {
				result[p] = te
			} else {
				delete(result, p)
			}
		case sameEntry(be, inBase, te, inTarget):
			// already applied upstream
		default:
			return nil, p
		}
	}
	return result, ""
}

// changedPaths lists the paths that differ between two file sets, sorted
func changedPaths(a, b fileSet) []string {
	var paths []string
	for p, ae := range a {
		if be, ok := b[p]; !ok || be != ae {
			paths = append(paths, p)
		}
	}
	for p := range b {
		if _, ok := a[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func sameEntry(a treeEntry, aOK bool, b treeEntry, bOK bool) bool {
	if aOK != bOK {
		return false
	}
	return !aOK || a == b
}

// Finish moves the synchronized branch to the replayed tip and updates the working tree
func (rb *Rebase) Finish() (RebaseResult, error) {
	if rb.state != RebaseNotStarted && rb.state != RebaseInProgress {
		return RebaseResult{}, fmt.Errorf("%w: rebase is %s", cryptaerrors.ErrRebase, rb.state)
	}
	if rb.opIndex < len(rb.ops) {
		return RebaseResult{}, fmt.Errorf("%w: %d of %d steps applied", cryptaerrors.ErrRebase, rb.opIndex, len(rb.ops))
	}

	result := RebaseResult{
		OrigHead:    rb.origHead,
		Onto:        rb.onto,
		Head:        rb.base,
		Replayed:    rb.replayed,
		Skipped:     rb.skipped,
		UpToDate:    rb.upToDate,
		FastForward: !rb.upToDate && len(rb.ops) == 0,
	}
	if rb.upToDate {
		rb.state = RebaseFinished
		return result, nil
	}

	current, ok, err := rb.repo.BranchTip()
	if err != nil {
		return RebaseResult{}, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	if (ok && current != rb.origHead) || (!ok && !rb.origHead.IsZero()) {
		return RebaseResult{}, fmt.Errorf("%w: %s moved during rebase", cryptaerrors.ErrRebase, BranchName)
	}

	rb.moved = true
	if err := rb.repo.setRef(BranchRef, rb.base); err != nil {
		return RebaseResult{}, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}
	if err := rb.repo.resetWorktree(rb.origHead, rb.base); err != nil {
		return RebaseResult{}, fmt.Errorf("%w: %v", cryptaerrors.ErrRebase, err)
	}

	rb.state = RebaseFinished
	return result, nil
}

// Abort restores the synchronized branch and working tree to the original tip
func (rb *Rebase) Abort() error {
	switch rb.state {
	case RebaseFinished:
		return fmt.Errorf("%w: rebase already finished", cryptaerrors.ErrRebase)
	case RebaseAborted:
		return nil
	}
	rb.state = RebaseAborted

	if !rb.moved {
		return nil
	}
	if rb.origHead.IsZero() {
		if err := rb.repo.Storer.RemoveReference(BranchRef); err != nil {
			return fmt.Errorf("%w: cannot restore %s: %v", cryptaerrors.ErrRebase, BranchName, err)
		}
		return nil
	}
	if err := rb.repo.setRef(BranchRef, rb.origHead); err != nil {
		return fmt.Errorf("%w: cannot restore %s: %v", cryptaerrors.ErrRebase, BranchName, err)
	}
	if err := rb.repo.resetWorktree(rb.base, rb.origHead); err != nil {
		return fmt.Errorf("%w: cannot restore working tree: %v", cryptaerrors.ErrRebase, err)
	}
	return nil
}

// Rebase replays the local commits onto onto and moves the synchronized branch.
// On any failure, cancellation included, the branch is restored to its original tip.
func (r *Repository) Rebase(ctx context.Context, id Identity, onto plumbing.Hash, now func() time.Time) (RebaseResult, error) {
	rb, err := r.StartRebase(id, onto, now)
	if err != nil {
		return RebaseResult{}, err
	}

	for rb.HasNext() {
		if _, err := rb.Next(ctx); err != nil {
			return RebaseResult{}, errors.Join(err, rb.Abort())
		}
	}

	if err := ctx.Err(); err != nil {
		return RebaseResult{}, errors.Join(err, rb.Abort())
	}

	result, err := rb.Finish()
	if err != nil {
		return RebaseResult{}, errors.Join(err, rb.Abort())
	}
	return result, nil
}

// resetWorktree moves the index and working tree from one commit to another.
// Only the paths that differ between the two trees are touched, so ignored and
// untracked files such as the age key stay in place.
func (r *Repository) resetWorktree(from, to plumbing.Hash) error {
	wt, err := r.Worktree()
	if err != nil {
		return err
	}

	before, err := r.filesAt(from)
	if err != nil {
		return err
	}
	after, err := r.filesAt(to)
	if err != nil {
		return err
	}

	paths := changedPaths(before, after)
	if len(paths) == 0 {
		// an empty file list would make a hard reset cover the whole tree
		return wt.Reset(&git.ResetOptions{Commit: to, Mode: git.MixedReset})
	}
	return wt.Reset(&git.ResetOptions{
		Commit: to,
		Mode:   git.HardReset,
		Files:  paths,
	})
}

// filesAt returns the files of a commit, or none for the zero hash
func (r *Repository) filesAt(commit plumbing.Hash) (fileSet, error) {
	if commit.IsZero() {
		return fileSet{}, nil
	}
	c, err := r.CommitObject(commit)
	if err != nil {
		return nil, err
	}
	return r.readTree(c.TreeHash)
}
