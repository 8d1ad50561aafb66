package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims del access token validado
	ctxClaimsKey ctxKey = "claims"
	// ctxSubjectIDKey guarda el subject ID extraído del token
	ctxSubjectIDKey ctxKey = "subject_id"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithClaims inyecta las claims del access token en el contexto
func WithClaims(ctx context.Context, claims *jwtx.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithSubjectID inyecta el subject ID en el contexto
func WithSubjectID(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, ctxSubjectIDKey, subjectID)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por handlers/services)
// =================================================================================

// GetClaims obtiene las claims del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) *jwtx.AccessClaims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if cl, ok := v.(*jwtx.AccessClaims); ok {
			return cl
		}
	}
	return nil
}

// GetSubjectID obtiene el subject ID del contexto.
// Retorna cadena vacía si no hay subject autenticado.
func GetSubjectID(ctx context.Context) string {
	if v := ctx.Value(ctxSubjectIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
