package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	service = "skillorbit-cli"

	// TokenKey is the single key the access token lives under
	TokenKey = "accessToken"
)

// KeyringStore persists the access token in the OS keychain/credential manager.
// Tokens are scoped per API base address so two backends never share a token.
type KeyringStore struct {
	scope string
}

// NewKeyringStore creates a keyring-backed store for the given API base address
func NewKeyringStore(scope string) *KeyringStore {
	return &KeyringStore{scope: scope}
}

func (k *KeyringStore) service() string {
	return fmt.Sprintf("%s:%s", service, k.scope)
}

// Load retrieves the token. A missing token is not an error.
func (k *KeyringStore) Load() (string, error) {
	token, err := keyring.Get(k.service(), TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Save replaces the stored token
func (k *KeyringStore) Save(token string) error {
	if err := keyring.Set(k.service(), TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the token; clearing an empty store succeeds
func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(k.service(), TokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// MemoryStore keeps the token for the lifetime of the process only
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
