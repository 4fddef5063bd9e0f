package git

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// unreadableFS fails to open one path, as a file without read permission would
type unreadableFS struct {
	billy.Filesystem
	path string
}

func (f unreadableFS) Open(name string) (billy.File, error) {
	if filepath.Clean(name) == f.path {
		return nil, errors.New("permission denied")
	}
	return f.Filesystem.Open(name)
}

func TestCommitAllUnreadablePath(t *testing.T) {
	fs := unreadableFS{Filesystem: memfs.New(), path: "locked.yml"}
	repo, err := InitStorage(memory.NewStorage(), fs)
	require.NoError(t, err)
	writeFile(t, fs, "secrets.yml", "a: 1\n")
	writeFile(t, fs, "locked.yml", "b: 2\n")

	_, err = repo.CommitAll(DefaultIdentity(), "", time.Now())
	require.ErrorIs(t, err, cryptaerrors.ErrStage)
	require.Contains(t, err.Error(), "locked.yml")
	require.Contains(t, err.Error(), "permission denied")

	_, ok, err := repo.BranchTip()
	require.NoError(t, err)
	require.False(t, ok, "no commit is created")
}

func TestCommitAll(t *testing.T) {
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("initial commit has no parent and uses the identity", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		writeFile(t, fs, "secrets.yml", "a: 1\n")

		rec, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.NoError(t, err)
		require.True(t, rec.IsInitial())
		require.Equal(t, DefaultCommitMessage, rec.Message)
		require.Equal(t, []string{"secrets.yml"}, rec.Paths)

		commit, err := repo.CommitObject(rec.Hash)
		require.NoError(t, err)
		require.Equal(t, "crypta", commit.Author.Name)
		require.Equal(t, "crypta@local", commit.Author.Email)
		require.Equal(t, "crypta", commit.Committer.Name)
		require.Equal(t, "crypta@local", commit.Committer.Email)
		require.True(t, commit.Author.When.Equal(when))
		require.Zero(t, commit.NumParents())

		tip, ok, err := repo.BranchTip()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, rec.Hash, tip)
	})

	t.Run("parent is the previous branch tip", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		first := commitFiles(t, repo, fs, "first", map[string]string{"secrets.yml": "a: 1\n"})

		writeFile(t, fs, "secrets.yml", "a: 2\n")
		rec, err := repo.CommitAll(DefaultIdentity(), "rotate", when)
		require.NoError(t, err)
		require.Equal(t, first.Hash, rec.Parent)
		require.Equal(t, "rotate", rec.Message)
		require.Equal(t, []string{"rotate", "first"}, messages(t, repo))
	})

	t.Run("records deletions and leaves a clean tree", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "base", map[string]string{
			"keep.yml": "k\n",
			"drop.yml": "d\n",
		})

		require.NoError(t, fs.Remove("drop.yml"))
		writeFile(t, fs, "added.yml", "n\n")

		rec, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.NoError(t, err)
		require.Equal(t, []string{"added.yml", "drop.yml"}, rec.Paths)

		files, err := repo.readTree(rec.Tree)
		require.NoError(t, err)
		require.Contains(t, files, "keep.yml")
		require.Contains(t, files, "added.yml")
		require.NotContains(t, files, "drop.yml")

		st, err := repo.Status()
		require.NoError(t, err)
		require.True(t, st.IsClean())
	})

	t.Run("clean tree has nothing to commit", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "base", map[string]string{"secrets.yml": "a: 1\n"})

		_, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.ErrorIs(t, err, cryptaerrors.ErrNothingToCommit)
	})

	t.Run("refuses to commit off the synchronized branch", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "base", map[string]string{"secrets.yml": "a: 1\n"})

		other := plumbing.NewBranchReferenceName("other")
		require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, other)))
		writeFile(t, fs, "secrets.yml", "a: 2\n")

		_, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.ErrorIs(t, err, cryptaerrors.ErrWrongBranch)
	})

	t.Run("refuses to commit on a detached HEAD", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		rec := commitFiles(t, repo, fs, "base", map[string]string{"secrets.yml": "a: 1\n"})

		require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, rec.Hash)))
		writeFile(t, fs, "secrets.yml", "a: 2\n")

		_, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.ErrorIs(t, err, cryptaerrors.ErrWrongBranch)
	})

	t.Run("unborn branch with existing history has no parent", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		remote := buildCommit(t, repo, plumbing.ZeroHash, "remote", map[string]string{"secrets.yml": "r\n"})
		require.NoError(t, repo.setRef(RemoteTrackingRef, remote))

		writeFile(t, fs, "secrets.yml", "local\n")
		_, err := repo.CommitAll(DefaultIdentity(), "", when)
		require.ErrorIs(t, err, cryptaerrors.ErrNoParent)

		_, ok, err := repo.BranchTip()
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestIsPublished(t *testing.T) {
	repo, fs := newMemRepo(t)

	published, err := repo.IsPublished()
	require.NoError(t, err)
	require.True(t, published, "an empty repository has nothing to publish")

	rec := commitFiles(t, repo, fs, "base", map[string]string{"secrets.yml": "a: 1\n"})
	published, err = repo.IsPublished()
	require.NoError(t, err)
	require.False(t, published)

	require.NoError(t, repo.setRef(RemoteTrackingRef, rec.Hash))
	published, err = repo.IsPublished()
	require.NoError(t, err)
	require.True(t, published)
}
