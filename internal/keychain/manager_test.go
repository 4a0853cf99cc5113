package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookiesLifecycle(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))

	data, err := m.LoadSessionCookies()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, m.SaveSessionCookies([]byte(`[{"name":"session"}]`)))
	data, err = m.LoadSessionCookies()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"session"}]`, string(data))

	require.NoError(t, m.ClearSessionCookies())
	data, err = m.LoadSessionCookies()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClearSessionCookiesWhenEmpty(t *testing.T) {
	m := NewManagerWithRing(keyring.NewArrayKeyring(nil))
	assert.NoError(t, m.ClearSessionCookies())
}
