package secrets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SopsConfigName is the sops configuration file in the secrets directory
	SopsConfigName = ".sops.yaml"

	ageKeyDir  = "sops/age"
	ageKeyFile = "key.txt"
)

// KeyGenerator creates an age identity file and returns its public key
type KeyGenerator interface {
	Generate(ctx context.Context, path string) (string, error)
}

// AgeKeygen runs the age-keygen command line tool
type AgeKeygen struct {
	Binary string
}

// NewAgeKeygen creates an AgeKeygen running "age-keygen" from PATH
func NewAgeKeygen() *AgeKeygen {
	return &AgeKeygen{Binary: "age-keygen"}
}

// Generate writes a new identity to path; age-keygen reports the public key on stderr
func (g *AgeKeygen) Generate(ctx context.Context, path string) (string, error) {
	_, stderr, err := commandRunner{binary: g.Binary}.run(ctx, "-o", path)
	if err != nil {
		return "", err
	}
	return publicKeyFrom(stderr)
}

// BootstrapResult describes the files prepared by Bootstrap
type BootstrapResult struct {
	AgeKeyPath     string
	PublicKey      string
	SopsConfigPath string
	CreatedDir     bool
	CreatedKey     bool
	CreatedConfig  bool
}

type sopsConfig struct {
	CreationRules []creationRule `yaml:"creation_rules"`
}

type creationRule struct {
	PathRegex string `yaml:"path_regex"`
	Age       string `yaml:"age"`
}

// Bootstrap prepares dir for encrypted secrets: an age identity under
// sops/age/key.txt, a .sops.yaml encrypting every .yml file to it and a
// .gitignore keeping the identity and temporary files out of the repository.
// Existing files are left alone.
func Bootstrap(ctx context.Context, dir string, keygen KeyGenerator) (BootstrapResult, error) {
	var result BootstrapResult

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		result.CreatedDir = true
	}
	keyDir := filepath.Join(dir, ageKeyDir)
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return result, fmt.Errorf("failed to create %s: %w", keyDir, err)
	}

	result.AgeKeyPath = filepath.Join(keyDir, ageKeyFile)
	if data, err := os.ReadFile(result.AgeKeyPath); err == nil {
		pub, err := publicKeyFrom(string(data))
		if err != nil {
			return result, fmt.Errorf("%s: %w", result.AgeKeyPath, err)
		}
		result.PublicKey = pub
	} else {
		pub, err := keygen.Generate(ctx, result.AgeKeyPath)
		if err != nil {
			return result, fmt.Errorf("failed to generate age key: %w", err)
		}
		result.PublicKey = pub
		result.CreatedKey = true
	}

	result.SopsConfigPath = filepath.Join(dir, SopsConfigName)
	if _, err := os.Stat(result.SopsConfigPath); errors.Is(err, os.ErrNotExist) {
		if err := writeSopsConfig(result.SopsConfigPath, result.AgeKeyPath, result.PublicKey); err != nil {
			return result, err
		}
		result.CreatedConfig = true
	}

	if err := ensureGitignore(dir, ageKeyDir+"/", TempFileName); err != nil {
		return result, err
	}
	return result, nil
}

func writeSopsConfig(path, keyPath, publicKey string) error {
	body, err := yaml.Marshal(sopsConfig{
		CreationRules: []creationRule{{PathRegex: `\.yml$`, Age: publicKey}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode sops configuration: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# sops configuration for crypta\n# age identity: %s\n#   export SOPS_AGE_KEY_FILE=%s\n", keyPath, keyPath)
	buf.Write(body)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ensureGitignore appends the missing patterns to dir/.gitignore
func ensureGitignore(dir string, patterns ...string) error {
	path := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	present := map[string]bool{}
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	added := false
	for _, p := range patterns {
		if !present[p] {
			buf.WriteString(p + "\n")
			added = true
		}
	}
	if !added {
		return nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// publicKeyFrom finds the age public key in age-keygen output or an identity file
func publicKeyFrom(text string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, prefix := range []string{"# public key:", "Public key:"} {
			if strings.HasPrefix(line, prefix) {
				if key := strings.TrimSpace(strings.TrimPrefix(line, prefix)); key != "" {
					return key, nil
				}
			}
		}
	}
	return "", errors.New("no age public key found")
}
