package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemory()

	_, err := s.Get("account-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("account-1", "tok"))
	got, err := s.Get("account-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Set("account-1", "rotated"))
	got, _ = s.Get("account-1")
	assert.Equal(t, "rotated", got)

	require.NoError(t, s.Delete("account-1"))
	require.NoError(t, s.Delete("account-1"))
	_, err = s.Get("account-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
