// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
)

// Pinger permite chequear la disponibilidad de un backend (ej: postgres).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	keys    *jwtx.KeyStore
	storage Pinger // opcional, nil con backend memory
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(keys *jwtx.KeyStore, storage Pinger) *HealthController {
	return &HealthController{keys: keys, storage: storage}
}

// healthResponse es la respuesta de /healthz y /readyz.
type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthz maneja GET /healthz: liveness, siempre 200 si el proceso atiende.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readyz maneja GET /readyz: readiness, exige clave firmante y storage accesible.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	components := map[string]string{}
	ready := true

	if kid, _, err := c.keys.ActiveSigner(); err != nil {
		components["signing_key"] = "unavailable"
		ready = false
	} else {
		components["signing_key"] = "ok"
		w.Header().Set("X-JWKS-KID", kid)
	}

	if c.storage != nil {
		if err := c.storage.Ping(ctx); err != nil {
			components["storage"] = "unavailable"
			ready = false
		} else {
			components["storage"] = "ok"
		}
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	helpers.WriteJSON(w, code, healthResponse{Status: status, Components: components})
}
