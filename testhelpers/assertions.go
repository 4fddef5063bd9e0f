// Package testhelpers provides testing utilities for crypta,
// including a scene system, Git repository helpers, and custom assertions.
package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectCommits asserts the newest commit subjects on main, newest first.
func ExpectCommits(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	messages, err := repo.ListCommitMessages("main")
	require.NoError(t, err, "Failed to list commits")

	if len(messages) < len(expected) {
		require.Fail(t, "Not enough commits", "Expected %d commits, got %d", len(expected), len(messages))
		return
	}
	require.Equal(t, expected, messages[:len(expected)], "Commits do not match")
}

// ExpectClean asserts that the working tree has nothing to commit.
func ExpectClean(t *testing.T, repo *GitRepo) {
	t.Helper()

	clean, err := repo.IsClean()
	require.NoError(t, err)
	require.True(t, clean, "Working tree is not clean")
}

// ExpectPublished asserts that the remote main equals the local main.
func ExpectPublished(t *testing.T, scene *Scene) {
	t.Helper()

	local, err := scene.Repo.GetRevision("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, local, scene.RemoteHead(), "Remote main does not match local main")
}
