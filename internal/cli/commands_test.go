package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atareao/crypta/testhelpers"
)

func TestSyncCommand(t *testing.T) {
	t.Run("publishes and then reports up to date", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.WriteFile("secrets.yml", "db: ENC[AES256_GCM,data:x]\n"))

		output, err := cryptaCmd(t, scene.Dir, "sync", "Add db").CombinedOutput()
		require.NoError(t, err, "sync failed: %s", string(output))
		require.Contains(t, string(output), "🚀 Synchronization completed.")
		testhelpers.ExpectCommits(t, scene.Repo, []string{"Add db", "1"})
		testhelpers.ExpectPublished(t, scene)

		author, err := scene.Repo.CommitAuthor("main")
		require.NoError(t, err)
		require.Equal(t, "crypta <crypta@local>", author)

		output, err = cryptaCmd(t, scene.Dir, "sy").CombinedOutput()
		require.NoError(t, err, "sync failed: %s", string(output))
		require.Equal(t, "✅ Nothing to sync, everything is up to date.\n", string(output))
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		dir := t.TempDir()

		output, err := cryptaCmd(t, dir, "sync").CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "❌ open failed:")
		require.Contains(t, string(output), "💡 Run 'crypta init --remote <url>'")
	})

	t.Run("rejects extra arguments", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)

		output, err := cryptaCmd(t, scene.Dir, "sync", "a", "b").CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "accepts at most 1 arg")
	})
}

func TestStatusCommand(t *testing.T) {
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	require.NoError(t, scene.Repo.WriteFile("secrets.yml", "db: x\n"))

	output, err := cryptaCmd(t, scene.Dir, "status").CombinedOutput()
	require.NoError(t, err, "status failed: %s", string(output))
	require.Contains(t, string(output), "untracked\tsecrets.yml")

	clean, err := scene.Repo.IsClean()
	require.NoError(t, err)
	require.False(t, clean, "status must not commit")
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	keyDir := filepath.Join(dir, "sops", "age")
	require.NoError(t, os.MkdirAll(keyDir, 0700))
	key := "# public key: age1qyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqs3290gq\nAGE-SECRET-KEY-1\n"
	require.NoError(t, os.WriteFile(filepath.Join(keyDir, "key.txt"), []byte(key), 0600))

	output, err := cryptaCmd(t, dir, "init", "--remote", "/srv/secrets.git").CombinedOutput()
	require.NoError(t, err, "init failed: %s", string(output))
	require.Contains(t, string(output), "🔗 Syncing with /srv/secrets.git")
	require.Contains(t, string(output), "✅ Initialization completed.")

	repo := &testhelpers.GitRepo{Dir: dir}
	url, err := repo.RunGitCommandAndGetOutput("remote", "get-url", "origin")
	require.NoError(t, err)
	require.Equal(t, "/srv/secrets.git", strings.TrimSpace(url))

	rules, err := os.ReadFile(filepath.Join(dir, ".sops.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(rules), "age1qyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqs3290gq")
}

func TestSecretCommandErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("key required", func(t *testing.T) {
		output, err := cryptaCmd(t, dir, "lookup").CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "no secret key given")
	})

	t.Run("delete needs --yes without a terminal", func(t *testing.T) {
		output, err := cryptaCmd(t, dir, "delete", "db").CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "rerun with --yes")
	})

	t.Run("store needs a value", func(t *testing.T) {
		cmd := cryptaCmd(t, dir, "store", "db")
		cmd.Stdin = strings.NewReader("")
		output, err := cmd.CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "no value on stdin")
	})

	t.Run("set needs a value", func(t *testing.T) {
		output, err := cryptaCmd(t, dir, "set").CombinedOutput()
		require.Error(t, err)
		require.Contains(t, string(output), "missing value")
	})
}

func TestVersionCommand(t *testing.T) {
	output, err := cryptaCmd(t, t.TempDir(), "version").CombinedOutput()
	require.NoError(t, err)
	require.Equal(t, "crypta dev\ncommit: none\nbuilt: unknown\n", string(output))
}
