// Package server arma el handler HTTP con todas las dependencias cableadas.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/shopauth/internal/audit"
	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/config"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	adminctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/auth"
	"github.com/dropDatabas3/shopauth/internal/http/controllers/discovery"
	healthctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/health"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	"github.com/dropDatabas3/shopauth/internal/http/router"
	adminsvc "github.com/dropDatabas3/shopauth/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/metrics"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
	"github.com/dropDatabas3/shopauth/internal/rate"
	"github.com/dropDatabas3/shopauth/internal/store/memory"
	"github.com/dropDatabas3/shopauth/internal/store/pg"
	redisstore "github.com/dropDatabas3/shopauth/internal/store/redis"
)

// Server agrupa los listeners del servicio y su ciclo de vida.
type Server struct {
	cfg     *config.Config
	handler http.Handler
	metrics http.Handler
	cleanup []func() error
	redis   *rdb.Client

	// Expuestos para el CLI (keys subcommands reutilizan el keystore cableado).
	Keys *jwtx.KeyStore
}

// Handler retorna el handler HTTP principal. Útil en tests de integración.
func (s *Server) Handler() http.Handler { return s.handler }

// Build construye el grafo de dependencias completo a partir de la config.
func Build(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	// 1. Storage de claves + directorio de principals
	var (
		keyRepo     repository.SigningKeyStore
		principals  repository.PrincipalStore
		roles       repository.RoleProvider
		credentials repository.CredentialVerifier
		pinger      healthctrl.Pinger
	)

	switch cfg.Storage.Driver {
	case "postgres":
		opTimeout, _ := time.ParseDuration(cfg.Storage.Postgres.OpTimeout)
		adapter, err := pg.New(ctx, pg.Config{
			DSN:          cfg.Storage.Postgres.DSN,
			MaxConns:     int32(cfg.Storage.Postgres.MaxConns),
			OpTimeout:    opTimeout,
			EnsureSchema: true,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		s.cleanup = append(s.cleanup, func() error { adapter.Close(); return nil })
		keyRepo = adapter
		principals = adapter
		roles = adapter
		credentials = adapter
		pinger = adapter
	default: // memory
		keyRepo = memory.NewSigningKeyStore()
		dir := memory.NewDirectory()
		principals = dir
		roles = dir
		credentials = dir
	}

	// 2. Sesiones
	var sessions repository.SessionStore
	switch cfg.Sessions.Backend {
	case "redis":
		client := redisstore.NewClient(cfg.Sessions.Redis.Addr, cfg.Sessions.Redis.DB)
		s.cleanup = append(s.cleanup, client.Close)
		sessions = redisstore.NewSessionStore(client, cfg.Sessions.Redis.Prefix)
		s.redis = client
	case "postgres":
		adapter, ok := keyRepo.(*pg.Adapter)
		if !ok {
			return nil, fmt.Errorf("sessions backend postgres requires storage driver postgres")
		}
		sessions = adapter
	default:
		sessions = memory.NewSessionStore()
	}

	// 3. Keystore + issuer + verifier
	keys := jwtx.NewKeyStore(keyRepo)
	if err := keys.Load(ctx); err != nil {
		return nil, fmt.Errorf("keystore load: %w", err)
	}
	if cfg.JWT.BootstrapKey {
		if err := keys.EnsureBootstrap(ctx); err != nil {
			return nil, fmt.Errorf("keystore bootstrap: %w", err)
		}
	}
	s.Keys = keys

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys, sessions)
	issuer.AccessTTL = cfg.AccessTTL()
	issuer.RefreshTTL = cfg.RefreshTTL()
	verifier := jwtx.NewVerifier(issuer, principals)

	resolver := authz.NewResolver(roles, principals)
	sink := audit.NewLogSink()

	// 4. Rate limiting
	var loginLimiter, refreshLimiter rate.Limiter
	if cfg.Rate.Enabled {
		loginWindow, _ := time.ParseDuration(cfg.Rate.Login.Window)
		refreshWindow, _ := time.ParseDuration(cfg.Rate.Refresh.Window)
		if s.redis != nil {
			loginLimiter = rate.NewRedisLimiter(s.redis, "rl:login:", cfg.Rate.Login.Limit, loginWindow)
			refreshLimiter = rate.NewRedisLimiter(s.redis, "rl:refresh:", cfg.Rate.Refresh.Limit, refreshWindow)
		} else {
			loginLimiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWindow)
			refreshLimiter = rate.NewMemoryLimiter(cfg.Rate.Refresh.Limit, refreshWindow)
		}
	}

	// 5. Métricas
	if err := metrics.RegisterAuth(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("metrics register: %w", err)
	}
	s.metrics = promhttp.Handler()

	// 6. Services + controllers
	cookieCfg := helpers.CookieConfig{
		AccessName:  cfg.Cookies.AccessName,
		RefreshName: cfg.Cookies.RefreshName,
		Domain:      cfg.Cookies.Domain,
		SameSite:    cfg.Cookies.SameSite,
		Secure:      cfg.Cookies.Secure,
	}

	authServices := authsvc.NewServices(authsvc.Deps{
		Issuer:      issuer,
		Verifier:    verifier,
		Sessions:    sessions,
		Credentials: credentials,
		Principals:  principals,
		Resolver:    resolver,
		Audit:       sink,
	})
	adminServices := adminsvc.NewServices(adminsvc.Deps{
		Keys:     keys,
		Sessions: sessions,
		Audit:    sink,
	})

	s.handler = router.New(router.Deps{
		AuthControllers:  authctrl.NewControllers(authServices, authctrl.ControllerDeps{Cookies: cookieCfg}),
		AdminControllers: adminctrl.NewControllers(adminServices),
		JWKS:             discovery.NewJWKSController(keys),
		Health:           healthctrl.NewHealthController(keys, pinger),
		Verifier:         verifier,
		Resolver:         resolver,
		LoginLimiter:     loginLimiter,
		RefreshLimiter:   refreshLimiter,
	})

	return s, nil
}

// Run levanta los listeners (app + métricas) y atiende hasta que el contexto
// se cancele. El shutdown es graceful con timeout.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("server"))

	appSrv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              s.cfg.Server.MetricsAddr,
		Handler:           s.metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listener started", logger.String("addr", appSrv.Addr))
		if err := appSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics listener started", logger.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return appSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.Close()
	return err
}

func (s *Server) metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics)
	return mux
}

// Close libera los recursos de storage.
func (s *Server) Close() {
	for _, fn := range s.cleanup {
		if err := fn(); err != nil {
			logger.L().Warn("cleanup error", logger.Err(err))
		}
	}
}
