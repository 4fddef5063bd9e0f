// Package errors provides sentinel errors and custom error types for the crypta application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Repository errors
var (
	// ErrNotARepository indicates that the secrets directory is not a git working directory
	ErrNotARepository = errors.New("not a git repository")

	// ErrStatus indicates that the working tree changes could not be enumerated
	ErrStatus = errors.New("cannot compute working tree status")

	// ErrWrongBranch indicates that HEAD is not on the synchronized branch
	ErrWrongBranch = errors.New("HEAD is not on the synchronized branch")
)

// Configuration errors
var (
	// ErrInvalidConfig indicates a configuration file or value that cannot be used
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Commit errors
var (
	// ErrStage indicates that a changed path could not be staged
	ErrStage = errors.New("cannot stage changes")

	// ErrNoParent indicates that the branch tip could not be resolved on a non-initial repository
	ErrNoParent = errors.New("branch has no commit to use as parent")

	// ErrNothingToCommit indicates a commit request on a clean working tree
	ErrNothingToCommit = errors.New("nothing to commit")
)

// Transport errors
var (
	// ErrNetwork indicates that the remote could not be reached or the transfer failed
	ErrNetwork = errors.New("network error")

	// ErrAuth indicates that the remote rejected or could not be offered credentials
	ErrAuth = errors.New("authentication failed")

	// ErrNoCredentialAvailable indicates that no SSH key or agent identity could be used
	ErrNoCredentialAvailable = errors.New("no credential available")

	// ErrKeyEncrypted indicates a private key that needs a passphrase to be used
	ErrKeyEncrypted = errors.New("private key is passphrase protected")

	// ErrUnsupportedTransport indicates a remote URL whose protocol is not supported
	ErrUnsupportedTransport = errors.New("unsupported transport")

	// ErrNonFastForward indicates that the remote branch advanced since the last fetch
	ErrNonFastForward = errors.New("non-fast-forward update rejected")
)

// Secret store errors
var (
	// ErrSecretsFileNotFound indicates that the secrets file has not been created yet
	ErrSecretsFileNotFound = errors.New("secrets file does not exist")

	// ErrKeyNotFound indicates a secret key missing from the secrets file
	ErrKeyNotFound = errors.New("secret key not found")

	// ErrNoKey indicates that no secret key was given and SECRET_ID is unset
	ErrNoKey = errors.New("no secret key given")

	// ErrCipherNotInstalled indicates that the encryption tool is not on PATH
	ErrCipherNotInstalled = errors.New("encryption tool is not installed")

	// ErrCipher indicates that the encryption tool failed
	ErrCipher = errors.New("encryption tool failed")
)

// Rebase errors
var (
	// ErrRebaseConflict indicates that a replayed commit could not be applied cleanly
	ErrRebaseConflict = errors.New("rebase conflict")

	// ErrRebase indicates an internal failure of the rebase machinery
	ErrRebase = errors.New("rebase failed")

	// ErrNonLinearHistory indicates a merge commit among the commits to replay
	ErrNonLinearHistory = errors.New("non-linear history cannot be replayed")
)

// Phase names a step of the synchronization
type Phase string

// Synchronization phases, in execution order
const (
	PhaseOpen   Phase = "open"
	PhaseStatus Phase = "status"
	PhaseCommit Phase = "commit"
	PhaseFetch  Phase = "fetch"
	PhaseRebase Phase = "rebase"
	PhasePush   Phase = "push"
)

// PhaseError tags an error with the synchronization phase that produced it
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError creates a new PhaseError. A nil err yields nil.
func NewPhaseError(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}

// PhaseOf returns the phase recorded in err, if any
func PhaseOf(err error) (Phase, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}
	return "", false
}

// RebaseConflictError represents a replay step that could not be applied cleanly
type RebaseConflictError struct {
	Commit string
	Path   string
}

func (e *RebaseConflictError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rebase conflict replaying %s: %s changed on both sides", shortHash(e.Commit), e.Path)
	}
	return fmt.Sprintf("rebase conflict replaying %s", shortHash(e.Commit))
}

// Is returns true if the target error is ErrRebaseConflict
func (e *RebaseConflictError) Is(target error) bool {
	return target == ErrRebaseConflict
}

// NewRebaseConflictError creates a new RebaseConflictError
func NewRebaseConflictError(commit, path string) *RebaseConflictError {
	return &RebaseConflictError{
		Commit: commit,
		Path:   path,
	}
}

// TransportError represents a fetch or push failure against a remote
type TransportError struct {
	Op     string
	Remote string
	Kind   error // ErrNetwork, ErrAuth or ErrNonFastForward
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Remote, e.Kind)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is reports whether target is the classified kind of the failure
func (e *TransportError) Is(target error) bool {
	return target == e.Kind
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(op, remote string, kind, err error) *TransportError {
	return &TransportError{
		Op:     op,
		Remote: remote,
		Kind:   kind,
		Err:    err,
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// CommandError represents a failed run of an external tool
type CommandError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf(": %s", e.Stderr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Is returns true if the target error is ErrCipher
func (e *CommandError) Is(target error) bool {
	return target == ErrCipher
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError. Stdout is never recorded since it may hold plaintext.
func NewCommandError(command string, args []string, stderr string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Args:    args,
		Stderr:  stderr,
		Err:     err,
	}
}
