// Package admin contiene DTOs para endpoints administrativos.
package admin

import "time"

// KeyResponse describe una clave de firma registrada. Nunca expone material
// privado.
type KeyResponse struct {
	KID       string    `json:"kid"`
	Alg       string    `json:"alg"`
	Use       string    `json:"use"`
	Active    bool      `json:"active"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateKeyRequest pide generar un par RSA nuevo.
type GenerateKeyRequest struct {
	Bits int `json:"bits"`
}

// UploadKeyRequest registra material de clave provisto externamente.
// PrivatePEM es opcional: una clave solo-pública sirve para verificar tokens
// emitidos por otra instancia.
type UploadKeyRequest struct {
	PublicPEM  string `json:"public_pem"`
	PrivatePEM string `json:"private_pem,omitempty"`
}

// UpdateKeyRequest cambia el estado de una clave (activa/inactiva).
type UpdateKeyRequest struct {
	Active *bool `json:"active"`
}

// SessionResponse describe una sesión de refresh activa.
type SessionResponse struct {
	JTI       string    `json:"jti"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// RevokeAllResponse indica cuántas sesiones se revocaron.
type RevokeAllResponse struct {
	Revoked int `json:"revoked"`
}
