package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// SecretIDEnv names the key used when a command is given none
const SecretIDEnv = "SECRET_ID"

// Clipboard receives secret values for pasting
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard
type SystemClipboard struct{}

// WriteAll copies text to the clipboard
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// ResolveKey returns the key argument, or SECRET_ID when no argument was given
func ResolveKey(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if key := os.Getenv(SecretIDEnv); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: pass KEY or set %s", cryptaerrors.ErrNoKey, SecretIDEnv)
}
