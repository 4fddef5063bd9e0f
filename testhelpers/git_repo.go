package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const textFileName = "test.txt"

// GitRepo is a git working directory driven through the git CLI, independent
// of the code under test.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new Git repository in dir with "main" as initial branch.
func NewGitRepo(dir string) (*GitRepo, error) {
	return newGitRepoInternal(dir, &gitRepoOptions{})
}

// NewGitRepoFromURL clones a repository from a remote URL.
func NewGitRepoFromURL(dir string, repoURL string) (*GitRepo, error) {
	return newGitRepoInternal(dir, &gitRepoOptions{repoURL: repoURL})
}

// NewBareRepo initializes a bare repository whose HEAD points at "main".
func NewBareRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "init", "--bare", dir)
	cmd.Env = gitEnv()
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to create bare repo: %w, output: %s", err, string(output))
	}
	return &GitRepo{Dir: dir}, nil
}

// gitRepoOptions holds options for creating a GitRepo.
type gitRepoOptions struct {
	repoURL string
}

// newGitRepoInternal is the internal implementation for creating a GitRepo.
func newGitRepoInternal(dir string, options *gitRepoOptions) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	if options.repoURL != "" {
		cmd := exec.Command("git", "clone", options.repoURL, dir)
		cmd.Env = gitEnv()
		if output, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("failed to clone repo: %w, output: %s", err, string(output))
		}
	} else {
		cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir)
		cmd.Env = gitEnv()
		if output, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("failed to init repo: %w, output: %s", err, string(output))
		}
	}

	// Configure Git user (required for commits)
	if err := repo.runGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.runGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}

	return repo, nil
}

// gitEnv avoids reading the global git config.
func gitEnv() []string {
	return append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
}

// runGitCommand executes a git command in the repository directory.
func (r *GitRepo) runGitCommand(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = gitEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s failed: %w, output: %s", strings.Join(args, " "), err, string(output))
	}
	if os.Getenv("DEBUG") != "" {
		fmt.Fprintf(os.Stderr, "git %s\n%s", strings.Join(args, " "), output)
	}
	return nil
}

// RunGitCommand executes a git command and returns an error if it fails.
func (r *GitRepo) RunGitCommand(args ...string) error {
	return r.runGitCommand(args...)
}

// runGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) runGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = gitEnv()
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RunGitCommandAndGetOutput executes a git command and returns its output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	return r.runGitCommandAndGetOutput(args...)
}

// WriteFile writes content to a path relative to the repository root.
func (r *GitRepo) WriteFile(name, content string) error {
	filePath := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadFile reads a path relative to the repository root.
func (r *GitRepo) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeleteFile removes a path relative to the repository root.
func (r *GitRepo) DeleteFile(name string) error {
	return os.Remove(filepath.Join(r.Dir, name))
}

// CreateChange creates a file change in the repository.
func (r *GitRepo) CreateChange(textValue string, prefix string, unstaged bool) error {
	fileName := textFileName
	if prefix != "" {
		fileName = prefix + "_" + fileName
	}
	if err := r.WriteFile(fileName, textValue); err != nil {
		return err
	}

	if !unstaged {
		return r.runGitCommand("add", fileName)
	}
	return nil
}

// CreateChangeAndCommit creates a file change and commits it.
func (r *GitRepo) CreateChangeAndCommit(textValue string, prefix string) error {
	if err := r.CreateChange(textValue, prefix, false); err != nil {
		return err
	}
	return r.CommitAll(textValue)
}

// CommitAll stages everything and commits it with the test user.
func (r *GitRepo) CommitAll(message string) error {
	if err := r.runGitCommand("add", "-A"); err != nil {
		return err
	}
	return r.runGitCommand("commit", "-m", message)
}

// AddRemote registers url as a remote.
func (r *GitRepo) AddRemote(name, url string) error {
	return r.runGitCommand("remote", "add", name, url)
}

// PushBranch pushes a branch to a remote.
func (r *GitRepo) PushBranch(remote, branch string) error {
	return r.runGitCommand("push", "-u", remote, branch)
}

// Pull fast-forwards the current branch from a remote.
func (r *GitRepo) Pull(remote, branch string) error {
	return r.runGitCommand("pull", "--ff-only", remote, branch)
}

// CheckoutDetached checks out a revision in detached HEAD state.
func (r *GitRepo) CheckoutDetached(rev string) error {
	return r.runGitCommand("checkout", "--detach", rev)
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.runGitCommand("checkout", "-b", name)
}

// GetRevision returns the SHA of a revision (branch, tag, or commit reference).
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.runGitCommandAndGetOutput("rev-parse", "--verify", "--quiet", rev)
}

// HasRef reports whether a fully qualified ref exists.
func (r *GitRepo) HasRef(refName string) bool {
	return r.runGitCommand("show-ref", "--verify", "--quiet", refName) == nil
}

// ListCommitMessages returns the subjects of the commits reachable from rev, newest first.
func (r *GitRepo) ListCommitMessages(rev string) ([]string, error) {
	output, err := r.runGitCommandAndGetOutput("log", "--first-parent", "--format=%s", rev)
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// CommitAuthor returns "name <email>" of the author of rev.
func (r *GitRepo) CommitAuthor(rev string) (string, error) {
	return r.runGitCommandAndGetOutput("log", "-1", "--format=%an <%ae>", rev)
}

// CommitCommitter returns "name <email>" of the committer of rev.
func (r *GitRepo) CommitCommitter(rev string) (string, error) {
	return r.runGitCommandAndGetOutput("log", "-1", "--format=%cn <%ce>", rev)
}

// CommitParents returns the parent SHAs of rev.
func (r *GitRepo) CommitParents(rev string) ([]string, error) {
	output, err := r.runGitCommandAndGetOutput("log", "-1", "--format=%P", rev)
	if err != nil {
		return nil, err
	}
	return strings.Fields(output), nil
}

// ChangedFiles returns the paths touched by rev relative to its parent.
func (r *GitRepo) ChangedFiles(rev string) ([]string, error) {
	output, err := r.runGitCommandAndGetOutput("show", "--format=", "--name-only", rev)
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// IsClean reports whether the working tree has no staged, unstaged or untracked changes.
func (r *GitRepo) IsClean() (bool, error) {
	output, err := r.runGitCommandAndGetOutput("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return output == "", nil
}

// IsAncestor checks if the first ref is an ancestor of the second ref.
func (r *GitRepo) IsAncestor(ancestor, descendant string) (bool, error) {
	err := r.runGitCommand("merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	return false, nil
}

// splitLines splits a string by newlines and returns non-empty lines.
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
