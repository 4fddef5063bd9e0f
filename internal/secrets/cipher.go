package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TempFileName is the plaintext file handed to sops next to the secrets file,
// so the creation rules of .sops.yaml in that directory apply
const TempFileName = ".crypta_temp.yml"

// Cipher encrypts and decrypts the secrets file
type Cipher interface {
	// Encrypt returns the ciphertext of plaintext destined for path
	Encrypt(ctx context.Context, plaintext []byte, path string) ([]byte, error)
	// Decrypt returns the plaintext of the file at path
	Decrypt(ctx context.Context, path string) ([]byte, error)
}

// SopsCipher delegates to the sops command line tool
type SopsCipher struct {
	Binary string
}

// NewSopsCipher creates a SopsCipher running "sops" from PATH
func NewSopsCipher() *SopsCipher {
	return &SopsCipher{Binary: "sops"}
}

// Check fails with ErrCipherNotInstalled when sops cannot be found
func (c *SopsCipher) Check() error {
	return commandRunner{binary: c.Binary}.lookPath()
}

// Decrypt runs sops -d on path
func (c *SopsCipher) Decrypt(ctx context.Context, path string) ([]byte, error) {
	out, _, err := commandRunner{binary: c.Binary}.run(ctx, "-d", path)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Encrypt writes plaintext to a temporary file beside path and runs sops -e on it
func (c *SopsCipher) Encrypt(ctx context.Context, plaintext []byte, path string) ([]byte, error) {
	dir := filepath.Dir(path)
	runner := commandRunner{binary: c.Binary, workingDir: dir}
	if err := runner.lookPath(); err != nil {
		return nil, err
	}

	tmp := filepath.Join(dir, TempFileName)
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return nil, fmt.Errorf("failed to write temporary file: %w", err)
	}
	defer os.Remove(tmp)

	out, _, err := runner.run(ctx, "-e", TempFileName)
	if err != nil {
		return nil, err
	}
	return out, nil
}
