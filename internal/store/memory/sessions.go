// Package memory provee implementaciones en memoria de los stores del dominio.
// Útiles para dev y tests; en producción se usan los adapters pg/redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

// subjectBucket agrupa las sesiones de un sujeto bajo su propio lock.
// Así las rotaciones de un sujeto se serializan entre sí sin bloquear a otros.
type subjectBucket struct {
	mu       sync.Mutex
	sessions map[string]repository.RefreshSession // jti -> session
}

// SessionStore es un repository.SessionStore en memoria.
type SessionStore struct {
	mu      sync.RWMutex
	buckets map[string]*subjectBucket
}

// NewSessionStore crea un SessionStore vacío.
func NewSessionStore() *SessionStore {
	return &SessionStore{buckets: make(map[string]*subjectBucket)}
}

func (s *SessionStore) bucket(subjectID string) *subjectBucket {
	s.mu.RLock()
	b, ok := s.buckets[subjectID]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[subjectID]; ok {
		return b
	}
	b = &subjectBucket{sessions: make(map[string]repository.RefreshSession)}
	s.buckets[subjectID] = b
	return b
}

func (s *SessionStore) Add(ctx context.Context, sess repository.RefreshSession) error {
	b := s.bucket(sess.SubjectID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sess.JTI] = sess
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, subjectID, jti string) error {
	b := s.bucket(subjectID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[jti]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(b.sessions, jti)
	return nil
}

func (s *SessionStore) RemoveAll(ctx context.Context, subjectID string) (int, error) {
	b := s.bucket(subjectID)
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.sessions)
	b.sessions = make(map[string]repository.RefreshSession)
	return n, nil
}

func (s *SessionStore) List(ctx context.Context, subjectID string) ([]repository.RefreshSession, error) {
	b := s.bucket(subjectID)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]repository.RefreshSession, 0, len(b.sessions))
	for _, sess := range b.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (s *SessionStore) Exists(ctx context.Context, subjectID, jti string) (bool, error) {
	b := s.bucket(subjectID)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[jti]
	return ok, nil
}

// Rotate consume (subjectID, oldJTI) e inserta next bajo el mismo lock:
// N llamadas concurrentes con el mismo oldJTI producen exactamente un éxito.
func (s *SessionStore) Rotate(ctx context.Context, subjectID, oldJTI string, next repository.RefreshSession) error {
	b := s.bucket(subjectID)
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.sessions[oldJTI]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if old.Expired(time.Now().UTC()) {
		// Sesión vencida: se purga y la rotación falla como inválida.
		delete(b.sessions, oldJTI)
		return repository.ErrSessionNotFound
	}
	delete(b.sessions, oldJTI)
	b.sessions[next.JTI] = next
	return nil
}
