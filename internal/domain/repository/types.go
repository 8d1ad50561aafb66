package repository

import "time"

// KeyStatus representa el estado de una clave de firma.
type KeyStatus string

const (
	KeyActive   KeyStatus = "active"
	KeyInactive KeyStatus = "inactive"
)

// SigningKey es el registro persistido de una clave de firma.
// El material privado puede ser nil (claves importadas solo para verificación).
type SigningKey struct {
	KID        string    `json:"kid"`
	Alg        string    `json:"alg"` // "RS256"
	Use        string    `json:"use"` // "sig"
	PublicPEM  []byte    `json:"public_pem"`
	PrivatePEM []byte    `json:"-"` // nunca se serializa hacia afuera
	Status     KeyStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Active reporta si la clave puede usarse para firmar/publicar.
func (k *SigningKey) Active() bool { return k.Status == KeyActive }

// ClientMeta son los metadatos del dispositivo que abrió la sesión.
type ClientMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// RefreshSession es el registro de un refresh token vivo.
// Una sesión es single-use: la rotación la consume y crea exactamente una nueva.
type RefreshSession struct {
	JTI       string     `json:"jti"`
	SubjectID string     `json:"subject_id"`
	Client    ClientMeta `json:"client"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reporta si la sesión venció en el instante dado.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Principal es la entidad autenticada que representa un token.
type Principal struct {
	ID               string   `json:"id"`
	Email            string   `json:"email,omitempty"`
	Role             string   `json:"role"`
	ExtraPermissions []string `json:"extra_permissions,omitempty"`
}

// Role agrupa un conjunto ordenado de permisos.
// Puede incluir el wildcard "*" que significa "todos los permisos".
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// PermissionWildcard es la entrada comodín de un rol.
// Los callers de autorización deben tratarla como grant universal, no enumerarla.
const PermissionWildcard = "*"
