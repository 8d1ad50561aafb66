package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// tokenUseRefresh marca un JWT como refresh token (claim token_use).
	tokenUseRefresh = "refresh"
)

// Issuer firma tokens RS256 usando la clave activa del KeyStore.
type Issuer struct {
	Iss        string                  // claim "iss"
	Keys       *KeyStore               // registro de claves
	Sessions   repository.SessionStore // persistencia de refresh sessions
	AccessTTL  time.Duration           // TTL corto (minutos)
	RefreshTTL time.Duration           // TTL largo (días)
}

// NewIssuer crea un Issuer con TTLs por defecto (15m / 30d).
func NewIssuer(iss string, ks *KeyStore, sessions repository.SessionStore) *Issuer {
	return &Issuer{
		Iss:        iss,
		Keys:       ks,
		Sessions:   sessions,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// IssueAccessToken emite un access token stateless para el sujeto.
// Header: kid + alg. Claims: iss/sub/role/iat/nbf/exp.
func (i *Issuer) IssueAccessToken(subjectID, role string) (string, time.Time, error) {
	kid, priv, err := i.Keys.ActiveSigner()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":  i.Iss,
		"sub":  subjectID,
		"role": role,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issuer: sign access: %w", err)
	}
	return signed, exp, nil
}

// IssueRefreshToken crea un jti nuevo, persiste exactamente una RefreshSession
// y firma un refresh token de TTL largo atado a ese jti.
func (i *Issuer) IssueRefreshToken(ctx context.Context, subjectID string, meta repository.ClientMeta) (string, *repository.RefreshSession, error) {
	now := time.Now().UTC()
	session := repository.RefreshSession{
		JTI:       uuid.NewString(),
		SubjectID: subjectID,
		Client:    meta,
		CreatedAt: now,
		ExpiresAt: now.Add(i.RefreshTTL),
	}
	if err := i.Sessions.Add(ctx, session); err != nil {
		return "", nil, fmt.Errorf("issuer: persist session: %w", err)
	}
	signed, err := i.signRefresh(session)
	if err != nil {
		// Sin token no hay sesión utilizable; limpieza best-effort.
		_ = i.Sessions.Remove(ctx, subjectID, session.JTI)
		return "", nil, err
	}
	return signed, &session, nil
}

// signRefresh firma el JWT de refresh para una sesión ya persistida.
// Lo usa también el verificador al rotar (la sesión nueva la inserta Rotate).
func (i *Issuer) signRefresh(s repository.RefreshSession) (string, error) {
	kid, priv, err := i.Keys.ActiveSigner()
	if err != nil {
		return "", err
	}
	claims := jwtv5.MapClaims{
		"iss":       i.Iss,
		"sub":       s.SubjectID,
		"jti":       s.JTI,
		"iat":       s.CreatedAt.Unix(),
		"nbf":       s.CreatedAt.Unix(),
		"exp":       s.ExpiresAt.Unix(),
		"token_use": tokenUseRefresh,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("issuer: sign refresh: %w", err)
	}
	return signed, nil
}
