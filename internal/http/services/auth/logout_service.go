package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// LogoutService define las operaciones de logout.
type LogoutService interface {
	// Logout revoca la sesión asociada al refresh token presentado.
	Logout(ctx context.Context, rawToken string) error
	// LogoutAll revoca todas las sesiones del subject del token presentado.
	LogoutAll(ctx context.Context, rawToken string) (int, error)
}

// LogoutDeps contiene las dependencias del logout service.
type LogoutDeps struct {
	Verifier *jwtx.Verifier
	Sessions repository.SessionStore
}

type logoutService struct {
	deps LogoutDeps
}

// NewLogoutService crea un nuevo LogoutService.
func NewLogoutService(deps LogoutDeps) LogoutService {
	return &logoutService{deps: deps}
}

// Logout es best-effort e idempotente: un token ya revocado o inválido no es
// un error hacia el cliente.
func (s *logoutService) Logout(ctx context.Context, rawToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		log.Debug("no refresh token provided, nothing to revoke")
		return nil
	}

	sub, jti, err := s.deps.Verifier.RefreshSubject(rawToken)
	if err != nil {
		log.Debug("refresh token unusable on logout", logger.Err(err))
		return nil
	}

	if err := s.deps.Sessions.Remove(ctx, sub, jti); err != nil {
		log.Debug("session removal failed on logout", logger.Err(err))
		return nil
	}

	log.Info("session revoked", logger.SubjectID(sub), logger.JTI(jti))
	return nil
}

func (s *logoutService) LogoutAll(ctx context.Context, rawToken string) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("LogoutAll"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return 0, nil
	}

	sub, _, err := s.deps.Verifier.RefreshSubject(rawToken)
	if err != nil {
		log.Debug("refresh token unusable on logout-all", logger.Err(err))
		return 0, nil
	}

	n, err := s.deps.Sessions.RemoveAll(ctx, sub)
	if err != nil {
		log.Error("failed to revoke all sessions", logger.Err(err))
		return 0, err
	}

	log.Info("all sessions revoked", logger.SubjectID(sub), logger.Count(n))
	return n, nil
}
