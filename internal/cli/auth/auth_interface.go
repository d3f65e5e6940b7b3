package auth

import "fmt"

// TokenStore defines the interface for token storage operations.
// An empty token from Load means no session.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

var (
	_ TokenStore = (*KeyringStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)

// Store kinds accepted by NewStore
const (
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// NewStore builds the store selected by kind for the given API base address
func NewStore(kind, scope string) (TokenStore, error) {
	switch kind {
	case StoreKeyring, "":
		return NewKeyringStore(scope), nil
	case StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q (use %s or %s)", kind, StoreKeyring, StoreMemory)
	}
}
