// Package redis implementa el SessionStore sobre Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	rdb "github.com/redis/go-redis/v9"
)

// SessionStore guarda una key por sesión (`{prefix}s:{subject}:{jti}`) con TTL
// nativo, más un set índice por sujeto para List/RemoveAll.
type SessionStore struct {
	c      *rdb.Client
	prefix string
}

// NewSessionStore crea el store sobre un cliente existente.
func NewSessionStore(client *rdb.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "shopauth:"
	}
	return &SessionStore{c: client, prefix: prefix}
}

// NewClient abre un cliente redis con la configuración dada.
func NewClient(addr string, db int) *rdb.Client {
	return rdb.NewClient(&rdb.Options{Addr: addr, DB: db})
}

func (s *SessionStore) sessKey(subjectID, jti string) string {
	return s.prefix + "s:" + subjectID + ":" + jti
}

func (s *SessionStore) idxKey(subjectID string) string {
	return s.prefix + "idx:" + subjectID
}

// rotateScript consume la sesión vieja e inserta la nueva en un solo EVAL.
// Redis ejecuta scripts de forma atómica: de N rotaciones concurrentes con el
// mismo oldJTI, exactamente una ve DEL==1.
var rotateScript = rdb.NewScript(`
if redis.call('DEL', KEYS[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[3], 'EX', ARGV[4])
redis.call('SREM', KEYS[3], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[2])
return 1
`)

func (s *SessionStore) Add(ctx context.Context, sess repository.RefreshSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis: session already expired")
	}
	pipe := s.c.TxPipeline()
	pipe.Set(ctx, s.sessKey(sess.SubjectID, sess.JTI), payload, ttl)
	pipe.SAdd(ctx, s.idxKey(sess.SubjectID), sess.JTI)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: add session: %w", err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, subjectID, jti string) error {
	n, err := s.c.Del(ctx, s.sessKey(subjectID, jti)).Result()
	if err != nil {
		return fmt.Errorf("redis: remove session: %w", err)
	}
	_ = s.c.SRem(ctx, s.idxKey(subjectID), jti).Err()
	if n == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) RemoveAll(ctx context.Context, subjectID string) (int, error) {
	jtis, err := s.c.SMembers(ctx, s.idxKey(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: list index: %w", err)
	}
	removed := 0
	for _, jti := range jtis {
		n, err := s.c.Del(ctx, s.sessKey(subjectID, jti)).Result()
		if err != nil {
			return removed, fmt.Errorf("redis: remove session: %w", err)
		}
		removed += int(n)
	}
	_ = s.c.Del(ctx, s.idxKey(subjectID)).Err()
	return removed, nil
}

func (s *SessionStore) List(ctx context.Context, subjectID string) ([]repository.RefreshSession, error) {
	jtis, err := s.c.SMembers(ctx, s.idxKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list index: %w", err)
	}
	out := make([]repository.RefreshSession, 0, len(jtis))
	for _, jti := range jtis {
		raw, err := s.c.Get(ctx, s.sessKey(subjectID, jti)).Bytes()
		if err == rdb.Nil {
			// Sesión expirada por TTL: limpiamos el índice al pasar.
			_ = s.c.SRem(ctx, s.idxKey(subjectID), jti).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis: get session: %w", err)
		}
		var sess repository.RefreshSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *SessionStore) Exists(ctx context.Context, subjectID, jti string) (bool, error) {
	n, err := s.c.Exists(ctx, s.sessKey(subjectID, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: exists session: %w", err)
	}
	return n > 0, nil
}

func (s *SessionStore) Rotate(ctx context.Context, subjectID, oldJTI string, next repository.RefreshSession) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}
	ttl := int(time.Until(next.ExpiresAt).Seconds())
	if ttl <= 0 {
		return fmt.Errorf("redis: rotated session already expired")
	}
	res, err := rotateScript.Run(ctx, s.c,
		[]string{s.sessKey(subjectID, oldJTI), s.sessKey(subjectID, next.JTI), s.idxKey(subjectID)},
		oldJTI, next.JTI, payload, ttl,
	).Int()
	if err != nil {
		return fmt.Errorf("redis: rotate session: %w", err)
	}
	if res == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}
