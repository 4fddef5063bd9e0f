package git

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	t.Run("new repository is clean", func(t *testing.T) {
		repo, _ := newMemRepo(t)

		st, err := repo.Status()
		require.NoError(t, err)
		require.True(t, st.IsClean())
	})

	t.Run("reports untracked modified and deleted paths sorted", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "base", map[string]string{
			"secrets.yml": "a: 1\n",
			"old.yml":     "b: 2\n",
		})

		writeFile(t, fs, "secrets.yml", "a: 2\n")
		require.NoError(t, fs.Remove("old.yml"))
		writeFile(t, fs, "new/nested.yml", "c: 3\n")

		st, err := repo.Status()
		require.NoError(t, err)
		require.Equal(t, WorkingTreeStatus{
			{Path: "new/nested.yml", Kind: ChangeUntracked},
			{Path: "old.yml", Kind: ChangeDeleted},
			{Path: "secrets.yml", Kind: ChangeModified},
		}, st)
		require.Equal(t, 1, st.Count(ChangeDeleted))
		require.Equal(t, []string{"new/nested.yml", "old.yml", "secrets.yml"}, st.Paths())
	})

	t.Run("staged additions are reported as added", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		writeFile(t, fs, "secrets.yml", "a: 1\n")

		wt, err := repo.Worktree()
		require.NoError(t, err)
		_, err = wt.Add("secrets.yml")
		require.NoError(t, err)

		st, err := repo.Status()
		require.NoError(t, err)
		require.Equal(t, WorkingTreeStatus{{Path: "secrets.yml", Kind: ChangeAdded}}, st)
	})

	t.Run("ignored files are excluded", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "ignore", map[string]string{".gitignore": "*.tmp\n"})

		writeFile(t, fs, "scratch.tmp", "x")

		st, err := repo.Status()
		require.NoError(t, err)
		require.True(t, st.IsClean(), "unexpected changes: %v", st)
	})

	t.Run("is clean after committing everything", func(t *testing.T) {
		repo, fs := newMemRepo(t)
		commitFiles(t, repo, fs, "base", map[string]string{"secrets.yml": "a: 1\n"})

		st, err := repo.Status()
		require.NoError(t, err)
		require.True(t, st.IsClean())
	})
}
