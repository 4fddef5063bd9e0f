package secrets

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

const sealed = "SEALED\n"

// fakeCipher prefixes the plaintext with a marker instead of encrypting
type fakeCipher struct {
	decryptErr error
	encrypted  int
}

func (f *fakeCipher) Encrypt(_ context.Context, plaintext []byte, _ string) ([]byte, error) {
	f.encrypted++
	return append([]byte(sealed), plaintext...), nil
}

func (f *fakeCipher) Decrypt(_ context.Context, path string) ([]byte, error) {
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte(sealed)) {
		return nil, errors.New("not sealed")
	}
	return bytes.TrimPrefix(data, []byte(sealed)), nil
}

func newTestStore(t *testing.T) (*Store, *fakeCipher) {
	t.Helper()
	cipher := &fakeCipher{}
	return NewStore(filepath.Join(t.TempDir(), "vault", "secrets.yml"), cipher), cipher
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set creates the encrypted file", func(t *testing.T) {
		store, cipher := newTestStore(t)
		require.False(t, store.Exists())

		require.NoError(t, store.Set(ctx, "db", "hunter2"))
		require.True(t, store.Exists())
		require.Equal(t, 1, cipher.encrypted)

		data, err := os.ReadFile(store.Path())
		require.NoError(t, err)
		require.Equal(t, sealed+"db: hunter2\n", string(data))

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("get, update and keys in file order", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Set(ctx, "zeta", "1"))
		require.NoError(t, store.Set(ctx, "alpha", "2"))
		require.NoError(t, store.Set(ctx, "zeta", "3"))

		value, err := store.Get(ctx, "zeta")
		require.NoError(t, err)
		require.Equal(t, "3", value)

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"zeta", "alpha"}, keys)
	})

	t.Run("values that look like other types stay strings", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Set(ctx, "pin", "0042"))
		require.NoError(t, store.Set(ctx, "flag", "yes"))

		pin, err := store.Get(ctx, "pin")
		require.NoError(t, err)
		require.Equal(t, "0042", pin)
		flag, err := store.Get(ctx, "flag")
		require.NoError(t, err)
		require.Equal(t, "yes", flag)
	})

	t.Run("delete", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Set(ctx, "a", "1"))
		require.NoError(t, store.Set(ctx, "b", "2"))

		require.NoError(t, store.Delete(ctx, "a"))
		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"b"}, keys)

		require.ErrorIs(t, store.Delete(ctx, "a"), cryptaerrors.ErrKeyNotFound)
	})

	t.Run("missing key", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Set(ctx, "a", "1"))

		_, err := store.Get(ctx, "nope")
		require.ErrorIs(t, err, cryptaerrors.ErrKeyNotFound)
	})

	t.Run("missing file", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.Get(ctx, "a")
		require.ErrorIs(t, err, cryptaerrors.ErrSecretsFileNotFound)
		_, err = store.Keys(ctx)
		require.ErrorIs(t, err, cryptaerrors.ErrSecretsFileNotFound)
		require.ErrorIs(t, store.Delete(ctx, "a"), cryptaerrors.ErrSecretsFileNotFound)
	})

	t.Run("decrypt failure is surfaced and nothing is written", func(t *testing.T) {
		store, cipher := newTestStore(t)
		require.NoError(t, store.Set(ctx, "a", "1"))
		cipher.decryptErr = cryptaerrors.NewCommandError("sops", []string{"-d"}, "no key", errors.New("exit status 128"))

		err := store.Set(ctx, "b", "2")
		require.ErrorIs(t, err, cryptaerrors.ErrCipher)
		require.Equal(t, 1, cipher.encrypted)
	})

	t.Run("non mapping content is rejected", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
		require.NoError(t, os.WriteFile(store.Path(), []byte(sealed+"- a\n- b\n"), 0600))

		_, err := store.Keys(ctx)
		require.Error(t, err)
	})

	t.Run("empty plaintext is an empty store", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
		require.NoError(t, os.WriteFile(store.Path(), []byte(sealed), 0600))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Empty(t, keys)
	})
}

func TestResolveKey(t *testing.T) {
	t.Run("argument wins", func(t *testing.T) {
		t.Setenv(SecretIDEnv, "from-env")
		key, err := ResolveKey([]string{"from-arg"})
		require.NoError(t, err)
		require.Equal(t, "from-arg", key)
	})

	t.Run("falls back to SECRET_ID", func(t *testing.T) {
		t.Setenv(SecretIDEnv, "from-env")
		key, err := ResolveKey(nil)
		require.NoError(t, err)
		require.Equal(t, "from-env", key)
	})

	t.Run("no key at all", func(t *testing.T) {
		t.Setenv(SecretIDEnv, "")
		_, err := ResolveKey(nil)
		require.ErrorIs(t, err, cryptaerrors.ErrNoKey)
	})
}

func TestSopsCipherNotInstalled(t *testing.T) {
	cipher := &SopsCipher{Binary: "crypta-no-such-sops"}
	require.ErrorIs(t, cipher.Check(), cryptaerrors.ErrCipherNotInstalled)

	_, err := cipher.Decrypt(context.Background(), "secrets.yml")
	require.ErrorIs(t, err, cryptaerrors.ErrCipherNotInstalled)

	dir := t.TempDir()
	_, err = cipher.Encrypt(context.Background(), []byte("a: b\n"), filepath.Join(dir, "secrets.yml"))
	require.ErrorIs(t, err, cryptaerrors.ErrCipherNotInstalled)
	_, err = os.Stat(filepath.Join(dir, TempFileName))
	require.True(t, os.IsNotExist(err))
}
