package auth

import (
	"context"
	"time"

	"github.com/yourorg/taskflow/pkg/cache"
)

// RevocationList records token ids that must be refused before they expire
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedPrefix = "revoked:"

// MemoryRevocationList keeps revoked token ids in the process TTL cache
type MemoryRevocationList struct {
	cache *cache.Cache
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{cache: cache.New()}
}

func (m *MemoryRevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if tokenID == "" || !until.After(time.Now()) {
		return nil
	}
	m.cache.SetUntil(revokedPrefix+tokenID, true, until)
	return nil
}

func (m *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := m.cache.Get(revokedPrefix + tokenID)
	return ok, nil
}

// Purge drops entries whose token has expired anyway and returns how many
// were removed.
func (m *MemoryRevocationList) Purge() int {
	return m.cache.Purge()
}

// Len is the number of entries currently held
func (m *MemoryRevocationList) Len() int {
	return m.cache.Len()
}
