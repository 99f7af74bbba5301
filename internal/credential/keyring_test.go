package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	orig := openKeyring
	openKeyring = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openKeyring = orig })
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	_, err := Get(KeySessionToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Set(KeySessionToken, "abc"))
	got, err := Get(KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, Delete(KeySessionToken))
	require.NoError(t, Delete(KeySessionToken))
	_, err = Get(KeySessionToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
