package repository

import "errors"

var (
	// ErrNotFound se retorna cuando un registro no existe.
	ErrNotFound = errors.New("not_found")

	// ErrSessionNotFound se retorna cuando una rotación referencia un jti
	// ausente o ya consumido. Se distingue de una firma inválida porque es
	// señal de replay/robo: el caller puede escalar (revocar la familia).
	ErrSessionNotFound = errors.New("invalid_session")

	// ErrPrincipalNotFound se retorna cuando el sujeto de un token válido
	// ya no existe. La validez del token nunca implica existencia del referente.
	ErrPrincipalNotFound = errors.New("principal_not_found")

	// ErrRoleNotFound se retorna cuando un rol referenciado no está definido.
	ErrRoleNotFound = errors.New("role_not_found")

	// ErrInvalidCredentials se retorna por el CredentialVerifier cuando
	// email/password no coinciden.
	ErrInvalidCredentials = errors.New("invalid_credentials")
)
