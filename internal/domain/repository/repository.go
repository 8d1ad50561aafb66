package repository

import "context"

// SigningKeyStore persiste registros de claves de firma.
// El KeyStore en memoria se puebla desde acá al arrancar y escribe en cada mutación.
type SigningKeyStore interface {
	ListSigningKeys(ctx context.Context) ([]SigningKey, error)
	InsertSigningKey(ctx context.Context, k *SigningKey) error
	SetSigningKeyStatus(ctx context.Context, kid string, status KeyStatus) error
}

// SessionStore mantiene las refresh sessions por sujeto.
//
// Contrato de concurrencia: las mutaciones de un mismo sujeto se serializan
// entre sí; sujetos distintos no contienden. Rotate es la operación crítica:
// debe comportarse como un compare-and-swap ("consumir oldJTI, crear next"),
// de modo que N llamadas concurrentes con el mismo oldJTI produzcan
// exactamente un éxito y N-1 ErrSessionNotFound.
type SessionStore interface {
	Add(ctx context.Context, s RefreshSession) error
	Remove(ctx context.Context, subjectID, jti string) error
	RemoveAll(ctx context.Context, subjectID string) (int, error)
	List(ctx context.Context, subjectID string) ([]RefreshSession, error)
	Exists(ctx context.Context, subjectID, jti string) (bool, error)

	// Rotate elimina atómicamente la sesión (subjectID, oldJTI) e inserta next.
	// Retorna ErrSessionNotFound si la sesión no existe o ya fue consumida.
	Rotate(ctx context.Context, subjectID, oldJTI string, next RefreshSession) error
}

// PrincipalStore resuelve principals por ID. Colaborador externo: el registro
// de usuarios vive en el storefront; acá solo consumimos la vista mínima.
type PrincipalStore interface {
	GetPrincipal(ctx context.Context, id string) (*Principal, error)
}

// RoleProvider resuelve un rol por nombre hacia su lista de permisos.
type RoleProvider interface {
	GetRole(ctx context.Context, name string) (*Role, error)
}

// CredentialVerifier valida credenciales de login y retorna el principal.
// El hashing/almacenamiento de passwords es responsabilidad del colaborador.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*Principal, error)
}

// AuditEvent es un evento administrativo auditable (acciones sobre claves/sesiones).
type AuditEvent struct {
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id,omitempty"`
	SubjectID string         `json:"subject_id,omitempty"`
	KID       string         `json:"kid,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// AuditSink recibe eventos administrativos. Colaborador opcional.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}
