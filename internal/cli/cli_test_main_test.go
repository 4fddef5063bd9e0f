package cli_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/atareao/crypta/testhelpers"
)

func TestMain(m *testing.M) {
	testhelpers.TestMain(m, nil)
}

// getCryptaBinary returns the path to the pre-built crypta binary.
func getCryptaBinary(t *testing.T) string {
	t.Helper()
	binaryPath := testhelpers.GetSharedBinaryPath()
	if binaryPath == "" {
		if err := testhelpers.GetBinaryError(); err != nil {
			t.Fatalf("failed to build crypta binary: %v", err)
		}
		t.Fatal("crypta binary not built")
	}
	return binaryPath
}

// cryptaCmd runs crypta against secretsDir with a private HOME and no terminal prompts.
func cryptaCmd(t *testing.T, secretsDir string, args ...string) *exec.Cmd {
	t.Helper()

	home := t.TempDir()
	cmd := exec.Command(getCryptaBinary(t), args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"CRYPTA_CONFIG=",
		"CRYPTA_SECRETS_DIR="+secretsDir,
		"CRYPTA_LOG_FILE="+filepath.Join(home, "crypta.log"),
		"CRYPTA_NO_INTERACTIVE=1",
		"SECRET_ID=",
		"SSH_AUTH_SOCK=",
		"DEBUG=",
	)
	return cmd
}
