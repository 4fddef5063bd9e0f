package git_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
	"github.com/atareao/crypta/internal/git"
	"github.com/atareao/crypta/testhelpers"
)

func TestOpen(t *testing.T) {
	t.Run("opens a working directory", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)

		repo, err := git.Open(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, scene.Dir, repo.Root())

		url, err := repo.RemoteURL()
		require.NoError(t, err)
		require.Equal(t, scene.RemoteDir, url)
	})

	t.Run("plain directory is not a repository", func(t *testing.T) {
		_, err := git.Open(t.TempDir())
		require.ErrorIs(t, err, cryptaerrors.ErrNotARepository)
	})

	t.Run("missing directory is not a repository", func(t *testing.T) {
		_, err := git.Open(filepath.Join(t.TempDir(), "missing"))
		require.ErrorIs(t, err, cryptaerrors.ErrNotARepository)
	})

	t.Run("subdirectory of a repository is not searched upwards", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		sub := filepath.Join(scene.Dir, "sub")
		require.NoError(t, os.Mkdir(sub, 0o750))

		_, err := git.Open(sub)
		require.ErrorIs(t, err, cryptaerrors.ErrNotARepository)
	})

	t.Run("bare repository has no working tree", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)

		_, err := git.Open(scene.RemoteDir)
		require.ErrorIs(t, err, cryptaerrors.ErrNotARepository)
	})
}

func TestInit(t *testing.T) {
	t.Run("creates a repository on main with origin", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "secrets")
		repo, err := git.Init(dir, "/srv/secrets.git")
		require.NoError(t, err)

		head, err := repo.Storer.Reference(plumbing.HEAD)
		require.NoError(t, err)
		require.Equal(t, git.BranchRef, head.Target())

		url, err := repo.RemoteURL()
		require.NoError(t, err)
		require.Equal(t, "/srv/secrets.git", url)

		reopened, err := git.Open(dir)
		require.NoError(t, err)
		require.Equal(t, repo.Root(), reopened.Root())
	})

	t.Run("is idempotent on an existing repository", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)

		repo, err := git.Init(scene.Dir, "/elsewhere.git")
		require.NoError(t, err)

		url, err := repo.RemoteURL()
		require.NoError(t, err)
		require.Equal(t, scene.RemoteDir, url, "existing origin is kept")
	})

	t.Run("without a remote", func(t *testing.T) {
		repo, err := git.Init(t.TempDir(), "")
		require.NoError(t, err)

		_, err = repo.RemoteURL()
		require.Error(t, err)
	})
}
