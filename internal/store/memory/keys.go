package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

// SigningKeyStore es un repository.SigningKeyStore efímero.
type SigningKeyStore struct {
	mu   sync.RWMutex
	list []repository.SigningKey
}

// NewSigningKeyStore crea un store de claves vacío.
func NewSigningKeyStore() *SigningKeyStore { return &SigningKeyStore{} }

func (m *SigningKeyStore) ListSigningKeys(ctx context.Context) ([]repository.SigningKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.SigningKey, len(m.list))
	copy(out, m.list)
	return out, nil
}

func (m *SigningKeyStore) InsertSigningKey(ctx context.Context, k *repository.SigningKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].KID == k.KID {
			m.list[i] = *k
			return nil
		}
	}
	m.list = append(m.list, *k)
	return nil
}

func (m *SigningKeyStore) SetSigningKeyStatus(ctx context.Context, kid string, status repository.KeyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].KID == kid {
			m.list[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}
