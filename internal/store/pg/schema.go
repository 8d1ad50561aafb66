package pg

// Schema mínimo del subsistema. Se aplica con EnsureSchema en el arranque
// (el resto del storefront maneja sus migraciones por separado).
const schemaSQL = `
CREATE TABLE IF NOT EXISTS signing_key (
	kid         TEXT PRIMARY KEY,
	alg         TEXT NOT NULL,
	use_tag     TEXT NOT NULL DEFAULT 'sig',
	public_pem  BYTEA NOT NULL,
	private_pem BYTEA,
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS refresh_session (
	jti        TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	ip         TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_refresh_session_subject
	ON refresh_session (subject_id);

CREATE TABLE IF NOT EXISTS principal (
	id            TEXT PRIMARY KEY,
	email         TEXT UNIQUE,
	password_hash TEXT,
	role_name     TEXT NOT NULL,
	extra_perms   TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS role (
	name        TEXT PRIMARY KEY,
	permissions TEXT[] NOT NULL DEFAULT '{}'
);
`
