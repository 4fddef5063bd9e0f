package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	cryptaerrors "github.com/atareao/crypta/internal/errors"
)

func TestPhaseError(t *testing.T) {
	t.Run("wraps the cause and records the phase", func(t *testing.T) {
		err := cryptaerrors.NewPhaseError(cryptaerrors.PhaseFetch, cryptaerrors.ErrNetwork)
		require.ErrorIs(t, err, cryptaerrors.ErrNetwork)
		require.Equal(t, "fetch failed: network error", err.Error())

		phase, ok := cryptaerrors.PhaseOf(fmt.Errorf("sync: %w", err))
		require.True(t, ok)
		require.Equal(t, cryptaerrors.PhaseFetch, phase)
	})

	t.Run("nil cause yields nil", func(t *testing.T) {
		require.NoError(t, cryptaerrors.NewPhaseError(cryptaerrors.PhasePush, nil))
	})

	t.Run("no phase on plain errors", func(t *testing.T) {
		_, ok := cryptaerrors.PhaseOf(errors.New("boom"))
		require.False(t, ok)
	})
}

func TestRebaseConflictError(t *testing.T) {
	err := cryptaerrors.NewRebaseConflictError("0123456789abcdef", "secrets.yml")
	require.ErrorIs(t, err, cryptaerrors.ErrRebaseConflict)
	require.Contains(t, err.Error(), "0123456")
	require.Contains(t, err.Error(), "secrets.yml")
	require.NotContains(t, err.Error(), "0123456789abcdef")
}

func TestTransportError(t *testing.T) {
	t.Run("matches its kind and its cause", func(t *testing.T) {
		err := cryptaerrors.NewTransportError("fetch", "origin", cryptaerrors.ErrAuth, cryptaerrors.ErrNoCredentialAvailable)
		require.ErrorIs(t, err, cryptaerrors.ErrAuth)
		require.ErrorIs(t, err, cryptaerrors.ErrNoCredentialAvailable)
		require.False(t, errors.Is(err, cryptaerrors.ErrNetwork))
	})

	t.Run("formats without a cause", func(t *testing.T) {
		err := cryptaerrors.NewTransportError("push", "origin", cryptaerrors.ErrNonFastForward, nil)
		require.Equal(t, "push origin: non-fast-forward update rejected", err.Error())
	})
}
