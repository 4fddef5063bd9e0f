// Package secrets edits the encrypted secrets file.
//
// The file is a flat YAML mapping of keys to values, encrypted at rest by a
// Cipher. Every operation decrypts the whole file, edits the mapping in
// memory and encrypts it again; key order and comments survive the round trip.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

// Store reads and writes secrets in one encrypted file
type Store struct {
	path   string
	cipher Cipher
}

// NewStore creates a Store for the secrets file at path
func NewStore(path string, cipher Cipher) *Store {
	return &Store{path: path, cipher: cipher}
}

// Path returns the secrets file path
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the secrets file has been created
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Set stores value under key, creating the file and its directory if needed
func (s *Store) Set(ctx context.Context, key, value string) error {
	doc, err := s.load(ctx)
	if errors.Is(err, cryptaerrors.ErrSecretsFileNotFound) {
		doc = newDocument()
	} else if err != nil {
		return err
	}

	mapping := doc.Content[0]
	if _, v := lookup(mapping, key); v != nil {
		*v = *scalar(value)
	} else {
		mapping.Content = append(mapping.Content, scalar(key), scalar(value))
	}
	return s.save(ctx, doc)
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	_, v := lookup(doc.Content[0], key)
	if v == nil {
		return "", fmt.Errorf("%w: %s", cryptaerrors.ErrKeyNotFound, key)
	}
	if v.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("secret %s is not a plain value", key)
	}
	return v.Value, nil
}

// Keys returns the keys in file order
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	mapping := doc.Content[0]
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

// Delete removes key from the file
func (s *Store) Delete(ctx context.Context, key string) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	mapping := doc.Content[0]
	i, _ := lookup(mapping, key)
	if i < 0 {
		return fmt.Errorf("%w: %s", cryptaerrors.ErrKeyNotFound, key)
	}
	mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
	return s.save(ctx, doc)
}

func (s *Store) load(ctx context.Context) (*yaml.Node, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", cryptaerrors.ErrSecretsFileNotFound, s.path)
		}
		return nil, err
	}

	plaintext, err := s.cipher.Decrypt(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", s.path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(plaintext, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if doc.Kind == 0 {
		return newDocument(), nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s does not hold a key/value mapping", s.path)
	}
	return &doc, nil
}

func (s *Store) save(ctx context.Context, doc *yaml.Node) error {
	plaintext, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode secrets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	ciphertext, err := s.cipher.Encrypt(ctx, plaintext, s.path)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func newDocument() *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// lookup returns the index of key in mapping and its value node, or -1 and nil
func lookup(mapping *yaml.Node, key string) (int, *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i, mapping.Content[i+1]
		}
	}
	return -1, nil
}
