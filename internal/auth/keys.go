package auth

import (
	"errors"
	"fmt"
	"os"

	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// KeyLoader turns a private key file into an SSH auth method
type KeyLoader interface {
	Load(user, path string) (gitssh.AuthMethod, error)
}

// FileKeyLoader reads unencrypted PEM or OpenSSH private keys from disk
type FileKeyLoader struct{}

// Load fails with ErrKeyEncrypted for passphrase protected keys
func (FileKeyLoader) Load(user, path string) (gitssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if _, err := ssh.ParseRawPrivateKey(pem); err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%s: %w", path, cryptaerrors.ErrKeyEncrypted)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	keys, err := gitssh.NewPublicKeys(user, pem, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return keys, nil
}
