package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPiped(t *testing.T) {
	t.Run("pipe keeps inner whitespace", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer r.Close()

		go func() {
			_, _ = w.Write([]byte("  pass phrase \r\n"))
			_ = w.Close()
		}()

		value, err := ReadPiped(r)
		require.NoError(t, err)
		require.Equal(t, "  pass phrase ", value)
	})

	t.Run("multi-line value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "value")
		require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0600))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		value, err := ReadPiped(f)
		require.NoError(t, err)
		require.Equal(t, "line1\nline2", value)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.WriteFile(path, nil, 0600))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		value, err := ReadPiped(f)
		require.NoError(t, err)
		require.Empty(t, value)
	})
}
