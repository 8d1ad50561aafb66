package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Taxonomía de fallos de verificación. Se retornan tipados y nunca cruzan el
// límite del servicio: los callers HTTP colapsan todo en un 401 genérico.
var (
	ErrTokenMalformed   = errors.New("token_malformed")
	ErrTokenExpired     = errors.New("token_expired")
	ErrSignatureInvalid = errors.New("signature_invalid")
)

// AccessClaims son los claims validados de un access token.
type AccessClaims struct {
	SubjectID string
	Role      string
	KID       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair es el resultado de un login o una rotación.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SessionJTI       string
}

// ReplayError marca un refresh con firma válida cuya sesión no existe:
// señal de replay/robo. Envuelve ErrSessionNotFound y expone el sujeto para
// que el caller pueda escalar (revocar la familia de sesiones).
type ReplayError struct {
	SubjectID string
	JTI       string
}

func (e *ReplayError) Error() string { return repository.ErrSessionNotFound.Error() }
func (e *ReplayError) Unwrap() error { return repository.ErrSessionNotFound }

// Verifier valida access tokens contra el KeyStore y ejecuta el protocolo de
// rotación de refresh contra el SessionStore.
type Verifier struct {
	Iss        string
	Keys       *KeyStore
	Sessions   repository.SessionStore
	Principals repository.PrincipalStore
	Issuer     *Issuer
}

// NewVerifier crea un Verifier sobre las mismas dependencias del Issuer.
func NewVerifier(issuer *Issuer, principals repository.PrincipalStore) *Verifier {
	return &Verifier{
		Iss:        issuer.Iss,
		Keys:       issuer.Keys,
		Sessions:   issuer.Sessions,
		Principals: principals,
		Issuer:     issuer,
	}
}

// keyfunc resuelve la clave pública estrictamente por el kid del header.
// Nunca por material provisto por el atacante; sin kid el token falla cerrado.
func (v *Verifier) keyfunc(t *jwtv5.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrKeyNotFound
	}
	return v.Keys.PublicKeyByKID(kid)
}

// parse valida firma, exp/nbf y estructura, y mapea errores a la taxonomía.
func (v *Verifier) parse(token string) (jwtv5.MapClaims, string, error) {
	tok, err := jwtv5.Parse(token, v.keyfunc,
		jwtv5.WithValidMethods([]string{AlgRS256}),
		jwtv5.WithIssuer(v.Iss),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenMalformed):
			return nil, "", ErrTokenMalformed
		case errors.Is(err, jwtv5.ErrTokenExpired), errors.Is(err, jwtv5.ErrTokenNotValidYet):
			return nil, "", ErrTokenExpired
		case errors.Is(err, ErrKeyNotFound):
			return nil, "", ErrKeyNotFound
		default:
			return nil, "", ErrSignatureInvalid
		}
	}
	if !tok.Valid {
		return nil, "", ErrSignatureInvalid
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, "", ErrTokenMalformed
	}
	kid, _ := tok.Header["kid"].(string)
	return claims, kid, nil
}

// VerifyAccessToken valida un access token y retorna sus claims.
// Falla cerrado ante cualquier anomalía.
func (v *Verifier) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims, kid, err := v.parse(token)
	if err != nil {
		return nil, err
	}
	// Un refresh token jamás sirve como access token.
	if use, _ := claims["token_use"].(string); use == tokenUseRefresh {
		return nil, ErrTokenMalformed
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrTokenMalformed
	}
	role, _ := claims["role"].(string)

	out := &AccessClaims{SubjectID: sub, Role: role, KID: kid}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}

// Refresh ejecuta el protocolo de rotación: verifica firma y estructura del
// refresh token, consume atómicamente la sesión vieja e inserta la nueva, y
// emite el par access/refresh de reemplazo.
//
// Dos llamadas concurrentes con el mismo token producen exactamente un éxito:
// la perdedora recibe ErrSessionNotFound (vía ReplayError), igual que un token
// ya consumido o revocado.
func (v *Verifier) Refresh(ctx context.Context, token string, meta repository.ClientMeta) (*TokenPair, error) {
	claims, _, err := v.parse(token)
	if err != nil {
		return nil, err
	}
	if use, _ := claims["token_use"].(string); use != tokenUseRefresh {
		return nil, ErrTokenMalformed
	}
	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	if jti == "" || sub == "" {
		return nil, ErrTokenMalformed
	}

	now := time.Now().UTC()
	next := repository.RefreshSession{
		JTI:       uuid.NewString(),
		SubjectID: sub,
		Client:    meta,
		CreatedAt: now,
		ExpiresAt: now.Add(v.Issuer.RefreshTTL),
	}

	if err := v.Sessions.Rotate(ctx, sub, jti, next); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, &ReplayError{SubjectID: sub, JTI: jti}
		}
		return nil, fmt.Errorf("verifier: rotate session: %w", err)
	}

	// Rol vigente del principal, no el del momento del login.
	principal, err := v.Principals.GetPrincipal(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Sujeto borrado con sesión viva: cerramos la sesión recién creada.
			_ = v.Sessions.Remove(ctx, sub, next.JTI)
			return nil, repository.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("verifier: load principal: %w", err)
	}

	access, accessExp, err := v.Issuer.IssueAccessToken(principal.ID, principal.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := v.Issuer.signRefresh(next)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: next.ExpiresAt,
		SessionJTI:       next.JTI,
	}, nil
}

// RefreshSubject extrae (sub, jti) de un refresh token sin exigir sesión viva.
// Lo usa logout para saber qué sesión cerrar.
func (v *Verifier) RefreshSubject(token string) (subjectID, jti string, err error) {
	claims, _, err := v.parse(token)
	if err != nil {
		return "", "", err
	}
	if use, _ := claims["token_use"].(string); use != tokenUseRefresh {
		return "", "", ErrTokenMalformed
	}
	sub, _ := claims["sub"].(string)
	id, _ := claims["jti"].(string)
	if sub == "" || id == "" {
		return "", "", ErrTokenMalformed
	}
	return sub, id, nil
}
