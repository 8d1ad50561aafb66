package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between services and HTTP packages.

var (
	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Logins por resultado (ok|invalid_credentials|error)",
	}, []string{"result"})

	AccessTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_access_tokens_issued_total",
		Help: "Access tokens emitidos",
	})

	RefreshRotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refresh_rotations_total",
		Help: "Rotaciones de refresh por resultado (ok|invalid_session|error)",
	}, []string{"result"})

	ReplayDetections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_replay_detections_total",
		Help: "Refresh con firma válida y sesión ausente (señal de robo)",
	})

	JWKSReads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_jwks_reads_total",
		Help: "Lecturas del documento JWKS",
	})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginsTotal, AccessTokensIssued, RefreshRotations, ReplayDetections, JWKSReads,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
