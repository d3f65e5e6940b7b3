package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, store TokenStore) {
	t.Helper()

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "fresh store should hold no token")

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token, "only one token value is active")

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	assert.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyringStore("http://localhost:8080"))
}

func TestKeyringStore_ScopedPerBackend(t *testing.T) {
	keyring.MockInit()

	prod := NewKeyringStore("https://api.skillorbit.app")
	local := NewKeyringStore("http://localhost:8080")

	require.NoError(t, prod.Save("prod-token"))

	token, err := local.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(StoreMemory, "x")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("", "x")
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, store)

	_, err = NewStore("file", "x")
	assert.Error(t, err)
}
