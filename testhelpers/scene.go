package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a secrets working directory wired to an empty bare "origin" remote,
// both under a temporary directory.
type Scene struct {
	T         *testing.T
	Root      string
	Dir       string
	RemoteDir string
	Repo      *GitRepo
	Remote    *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene. It automatically handles cleanup using t.Cleanup().
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "crypta-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
		}
	})

	remote, err := NewBareRepo(filepath.Join(tmpDir, "origin.git"))
	if err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}

	repo, err := NewGitRepo(filepath.Join(tmpDir, "local"))
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}
	if err := repo.AddRemote("origin", remote.Dir); err != nil {
		t.Fatalf("Failed to add remote: %v", err)
	}

	scene := &Scene{
		T:         t,
		Root:      tmpDir,
		Dir:       repo.Dir,
		RemoteDir: remote.Dir,
		Repo:      repo,
		Remote:    remote,
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	return scene
}

// Clone creates another working directory of the remote, as a second machine would.
func (s *Scene) Clone(name string) *GitRepo {
	s.T.Helper()

	repo, err := NewGitRepoFromURL(filepath.Join(s.Root, name), s.RemoteDir)
	if err != nil {
		s.T.Fatalf("Failed to clone remote: %v", err)
	}
	return repo
}

// RemoteHead returns the SHA of main on the remote, or "" when it does not exist.
func (s *Scene) RemoteHead() string {
	s.T.Helper()

	sha, err := s.Remote.GetRevision("refs/heads/main")
	if err != nil {
		return ""
	}
	return sha
}

// BasicSceneSetup commits one file and publishes it to the remote.
func BasicSceneSetup(scene *Scene) error {
	if err := scene.Repo.CreateChangeAndCommit("1", "1"); err != nil {
		return err
	}
	return scene.Repo.PushBranch("origin", "main")
}
