// Package auth contiene DTOs para endpoints de autenticación.
package auth

import "time"

// LoginRequest representa la solicitud de login por password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest representa la solicitud de refresh.
// El token también puede venir por cookie; el body es fallback para clientes
// no-browser.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest representa la solicitud de logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	// All revoca todas las sesiones del subject, no solo la presentada.
	All bool `json:"all"`
}

// TokenPairResponse es la respuesta estándar de login y refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenPairResult es el resultado interno que los services entregan a los
// controllers, incluye expiraciones absolutas para armar cookies.
type TokenPairResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SubjectID        string
}

// MeResponse es la respuesta de GET /v2/me.
type MeResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
