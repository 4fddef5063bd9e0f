package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{Name: "Test User", Email: "test@example.com"}

// fixedClock returns increasing timestamps so commit hashes stay distinct
func fixedClock() func() time.Time {
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func newMemRepo(t *testing.T) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	repo, err := InitStorage(memory.NewStorage(), fs)
	require.NoError(t, err)
	return repo, fs
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
}

func commitFiles(t *testing.T, repo *Repository, fs billy.Filesystem, message string, files map[string]string) CommitRecord {
	t.Helper()
	for name, content := range files {
		writeFile(t, fs, name, content)
	}
	rec, err := repo.CommitAll(testIdentity, message, time.Now())
	require.NoError(t, err)
	return rec
}

// buildCommit stores a commit whose tree is the parent's tree with files applied.
// An empty content deletes the path. Neither refs nor the worktree are touched.
func buildCommit(t *testing.T, repo *Repository, parent plumbing.Hash, message string, files map[string]string) plumbing.Hash {
	t.Helper()

	base := fileSet{}
	var parents []plumbing.Hash
	if !parent.IsZero() {
		c, err := repo.CommitObject(parent)
		require.NoError(t, err)
		base, err = repo.readTree(c.TreeHash)
		require.NoError(t, err)
		parents = []plumbing.Hash{parent}
	}

	for name, content := range files {
		if content == "" {
			delete(base, name)
			continue
		}
		base[name] = treeEntry{mode: filemode.Regular, hash: storeBlob(t, repo, content)}
	}

	treeHash, err := repo.writeTree(base)
	require.NoError(t, err)

	sig := object.Signature{Name: "Other Machine", Email: "other@example.com", When: time.Now()}
	hash, err := repo.storeCommit(&object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	})
	require.NoError(t, err)
	return hash
}

func storeBlob(t *testing.T, repo *Repository, content string) plumbing.Hash {
	t.Helper()
	obj := repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	hash, err := repo.Storer.SetEncodedObject(obj)
	require.NoError(t, err)
	return hash
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func messages(t *testing.T, repo *Repository) []string {
	t.Helper()
	log, err := repo.FirstParentLog(0)
	require.NoError(t, err)
	out := make([]string, len(log))
	for i, c := range log {
		out[i] = c.Message
	}
	return out
}
