// Package discovery contiene los controllers de endpoints públicos de descubrimiento.
package discovery

import (
	"net/http"

	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/metrics"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// JWKSController maneja GET /.well-known/jwks.json.
type JWKSController struct {
	keys *jwtx.KeyStore
}

// NewJWKSController crea un nuevo controller de JWKS.
func NewJWKSController(keys *jwtx.KeyStore) *JWKSController {
	return &JWKSController{keys: keys}
}

// JWKS maneja GET /.well-known/jwks.json
//
// El documento se arma en cada lectura contra el registro: una clave
// desactivada desaparece en la lectura inmediata siguiente, sin caché ni
// ventana de staleness.
func (c *JWKSController) JWKS(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("JWKSController.JWKS"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	body, err := c.keys.JWKSJSON()
	if err != nil {
		log.Error("jwks rendering failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	metrics.JWKSReads.Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
