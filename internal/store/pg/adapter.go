// Package pg implementa los stores del dominio sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Adapter agrupa los repos pg. Todas las llamadas llevan timeout acotado:
// ninguna persistencia de este subsistema puede bloquear indefinidamente.
type Adapter struct {
	pool      *pgxpool.Pool
	opTimeout time.Duration
}

// Config configura la conexión.
type Config struct {
	DSN          string
	MaxConns     int32
	OpTimeout    time.Duration
	EnsureSchema bool
}

// New abre el pool y opcionalmente aplica el schema.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	a := &Adapter{pool: pool, opTimeout: cfg.OpTimeout}
	if a.opTimeout <= 0 {
		a.opTimeout = 5 * time.Second
	}
	if cfg.EnsureSchema {
		if err := a.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close cierra el pool.
func (a *Adapter) Close() { a.pool.Close() }

// Ping verifica la conexión (readiness).
func (a *Adapter) Ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.pool.Ping(ctx)
}

// EnsureSchema aplica el schema mínimo.
func (a *Adapter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if _, err := a.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.opTimeout)
}

// ─── SigningKeyStore ───

func (a *Adapter) ListSigningKeys(ctx context.Context) ([]repository.SigningKey, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		SELECT kid, alg, use_tag, public_pem, private_pem, status, created_at
		FROM signing_key ORDER BY created_at DESC
	`
	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pg: list signing keys: %w", err)
	}
	defer rows.Close()

	var keys []repository.SigningKey
	for rows.Next() {
		var k repository.SigningKey
		var status string
		if err := rows.Scan(&k.KID, &k.Alg, &k.Use, &k.PublicPEM, &k.PrivatePEM, &status, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("pg: scan signing key: %w", err)
		}
		k.Status = repository.KeyStatus(status)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (a *Adapter) InsertSigningKey(ctx context.Context, k *repository.SigningKey) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		INSERT INTO signing_key (kid, alg, use_tag, public_pem, private_pem, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (kid) DO UPDATE SET private_pem = EXCLUDED.private_pem
	`
	_, err := a.pool.Exec(ctx, query,
		k.KID, k.Alg, k.Use, k.PublicPEM, k.PrivatePEM, string(k.Status), k.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pg: insert signing key: %w", err)
	}
	return nil
}

func (a *Adapter) SetSigningKeyStatus(ctx context.Context, kid string, status repository.KeyStatus) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	tag, err := a.pool.Exec(ctx, `UPDATE signing_key SET status = $2 WHERE kid = $1`, kid, string(status))
	if err != nil {
		return fmt.Errorf("pg: set key status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ─── SessionStore ───

func (a *Adapter) Add(ctx context.Context, s repository.RefreshSession) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		INSERT INTO refresh_session (jti, subject_id, ip, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := a.pool.Exec(ctx, query,
		s.JTI, s.SubjectID, s.Client.IP, s.Client.UserAgent, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("pg: add session: %w", err)
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, subjectID, jti string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM refresh_session WHERE subject_id = $1 AND jti = $2`, subjectID, jti)
	if err != nil {
		return fmt.Errorf("pg: remove session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) RemoveAll(ctx context.Context, subjectID string) (int, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM refresh_session WHERE subject_id = $1`, subjectID)
	if err != nil {
		return 0, fmt.Errorf("pg: remove all sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (a *Adapter) List(ctx context.Context, subjectID string) ([]repository.RefreshSession, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		SELECT jti, subject_id, COALESCE(ip, ''), COALESCE(user_agent, ''), created_at, expires_at
		FROM refresh_session WHERE subject_id = $1 ORDER BY created_at DESC
	`
	rows, err := a.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pg: list sessions: %w", err)
	}
	defer rows.Close()

	var out []repository.RefreshSession
	for rows.Next() {
		var s repository.RefreshSession
		if err := rows.Scan(&s.JTI, &s.SubjectID, &s.Client.IP, &s.Client.UserAgent, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("pg: scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (a *Adapter) Exists(ctx context.Context, subjectID, jti string) (bool, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	var one int
	err := a.pool.QueryRow(ctx,
		`SELECT 1 FROM refresh_session WHERE subject_id = $1 AND jti = $2`, subjectID, jti).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pg: exists session: %w", err)
	}
	return true, nil
}

// Rotate consume la sesión vieja e inserta la nueva en una transacción.
// El DELETE condicionado por jti (PK) garantiza exactly-once: de N rotaciones
// concurrentes solo una ve RowsAffected==1; las demás fallan como inválidas.
func (a *Adapter) Rotate(ctx context.Context, subjectID, oldJTI string, next repository.RefreshSession) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin rotate: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM refresh_session
		WHERE subject_id = $1 AND jti = $2 AND expires_at > NOW()
	`, subjectID, oldJTI)
	if err != nil {
		return fmt.Errorf("pg: consume session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrSessionNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_session (jti, subject_id, ip, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, next.JTI, next.SubjectID, next.Client.IP, next.Client.UserAgent, next.CreatedAt, next.ExpiresAt)
	if err != nil {
		return fmt.Errorf("pg: insert rotated session: %w", err)
	}
	return tx.Commit(ctx)
}

// ─── PrincipalStore / RoleProvider ───

func (a *Adapter) GetPrincipal(ctx context.Context, id string) (*repository.Principal, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		SELECT id, COALESCE(email, ''), role_name, extra_perms
		FROM principal WHERE id = $1
	`
	var p repository.Principal
	err := a.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Email, &p.Role, &p.ExtraPermissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get principal: %w", err)
	}
	return &p, nil
}

func (a *Adapter) GetRole(ctx context.Context, name string) (*repository.Role, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	var r repository.Role
	err := a.pool.QueryRow(ctx,
		`SELECT name, permissions FROM role WHERE name = $1`, name).Scan(&r.Name, &r.Permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get role: %w", err)
	}
	return &r, nil
}

// ─── CredentialVerifier ───

// VerifyCredentials valida email+password contra el hash bcrypt almacenado.
// Cualquier fallo (email desconocido, sin hash, hash no coincide) colapsa en
// ErrInvalidCredentials para no filtrar cuál campo falló.
func (a *Adapter) VerifyCredentials(ctx context.Context, email, password string) (*repository.Principal, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	const query = `
		SELECT id, COALESCE(email, ''), COALESCE(password_hash, ''), role_name, extra_perms
		FROM principal WHERE email = $1
	`
	var (
		p    repository.Principal
		hash string
	)
	err := a.pool.QueryRow(ctx, query, email).Scan(&p.ID, &p.Email, &hash, &p.Role, &p.ExtraPermissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("pg: verify credentials: %w", err)
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, repository.ErrInvalidCredentials
	}
	return &p, nil
}
