package secrets

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// DefaultCommandTimeout bounds every external tool run without a deadline
const DefaultCommandTimeout = 2 * time.Minute

// commandRunner runs an external tool in a working directory
type commandRunner struct {
	binary     string
	workingDir string
}

// lookPath fails with ErrCipherNotInstalled when the binary is not on PATH
func (r commandRunner) lookPath() error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("%w: %s not found on PATH", cryptaerrors.ErrCipherNotInstalled, r.binary)
	}
	return nil
}

// run executes the tool and returns stdout and stderr
func (r commandRunner) run(ctx context.Context, args ...string) ([]byte, string, error) {
	if err := r.lookPath(); err != nil {
		return nil, "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, "", cryptaerrors.NewCommandError(r.binary, args, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.Bytes(), stderr.String(), nil
}
