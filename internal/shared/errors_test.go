package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := NewValidationError("name", "required")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "validation failed: name: required", err.Error())
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := &ConflictError{Detail: "name already in use"}
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "conflict: name already in use", err.Error())
}

func TestStoragePassesDomainErrorsThrough(t *testing.T) {
	require.NoError(t, Storage("op", nil))

	require.ErrorIs(t, Storage("op", ErrNotFound), ErrNotFound)
	require.ErrorIs(t, Storage("op", &ConflictError{}), ErrConflict)
	require.ErrorIs(t, Storage("op", NewValidationError("f", "m")), ErrValidation)

	wrapped := Storage("units: list", fmt.Errorf("connection refused"))
	var storageErr *StorageError
	require.ErrorAs(t, wrapped, &storageErr)
	require.Equal(t, "units: list", storageErr.Op)
	require.False(t, errors.Is(wrapped, ErrNotFound))
}
