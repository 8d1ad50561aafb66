package helpers

import (
	"net/http"
	"time"
)

// CookieConfig define cómo se emiten las cookies de sesión.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	SameSite    string // "Lax" | "Strict" | "None"
	Secure      bool
}

func (c CookieConfig) sameSite() http.SameSite {
	switch c.SameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) accessName() string {
	if c.AccessName == "" {
		return "access_token"
	}
	return c.AccessName
}

func (c CookieConfig) refreshName() string {
	if c.RefreshName == "" {
		return "refresh_token"
	}
	return c.RefreshName
}

// BuildAccessCookie emite la cookie del access token.
func BuildAccessCookie(cfg CookieConfig, token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.accessName(),
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	}
}

// BuildRefreshCookie emite la cookie del refresh token. El Path queda acotado
// a los endpoints que lo consumen para no mandarla en cada request.
func BuildRefreshCookie(cfg CookieConfig, token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.refreshName(),
		Value:    token,
		Path:     "/v2/auth",
		Domain:   cfg.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	}
}

// BuildDeletionCookies retorna cookies que expiran inmediatamente para
// limpiar las cookies de sesión en logout.
func BuildDeletionCookies(cfg CookieConfig) []*http.Cookie {
	expired := time.Unix(0, 0)
	return []*http.Cookie{
		{
			Name:     cfg.accessName(),
			Value:    "",
			Path:     "/",
			Domain:   cfg.Domain,
			MaxAge:   -1,
			Expires:  expired,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: cfg.sameSite(),
		},
		{
			Name:     cfg.refreshName(),
			Value:    "",
			Path:     "/v2/auth",
			Domain:   cfg.Domain,
			MaxAge:   -1,
			Expires:  expired,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: cfg.sameSite(),
		},
	}
}

// RefreshTokenFromRequest resuelve el refresh token: primero cookie, luego
// body JSON ya parseado por el controller (bodyToken).
func RefreshTokenFromRequest(r *http.Request, cfg CookieConfig, bodyToken string) string {
	if ck, err := r.Cookie(cfg.refreshName()); err == nil && ck.Value != "" {
		return ck.Value
	}
	return bodyToken
}
