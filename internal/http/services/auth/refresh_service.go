package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/shopauth/internal/audit"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/metrics"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
	"go.uber.org/zap"
)

// RefreshService define la rotación de refresh tokens.
type RefreshService interface {
	Refresh(ctx context.Context, rawToken string, meta repository.ClientMeta) (*dto.TokenPairResult, error)
}

// RefreshDeps contiene las dependencias del refresh service.
type RefreshDeps struct {
	Verifier *jwtx.Verifier
	Sessions repository.SessionStore
	Audit    repository.AuditSink
}

type refreshService struct {
	deps RefreshDeps
}

// NewRefreshService crea un nuevo RefreshService.
func NewRefreshService(deps RefreshDeps) RefreshService {
	return &refreshService{deps: deps}
}

// Refresh errors
var (
	ErrMissingRefreshToken = fmt.Errorf("missing refresh token")
	// ErrInvalidRefreshToken cubre firma inválida, expiración, sesión
	// consumida y replay. El caller NUNCA debe distinguirlos hacia afuera.
	ErrInvalidRefreshToken = fmt.Errorf("invalid or expired refresh token")
)

func (s *refreshService) Refresh(ctx context.Context, rawToken string, meta repository.ClientMeta) (*dto.TokenPairResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrMissingRefreshToken
	}

	pair, err := s.deps.Verifier.Refresh(ctx, rawToken, meta)
	if err != nil {
		var replay *jwtx.ReplayError
		if errors.As(err, &replay) {
			// Firma válida pero la sesión ya fue consumida: asumimos robo de
			// token y revocamos toda la familia del sujeto.
			s.escalateReplay(ctx, replay, log)
			metrics.RefreshRotations.WithLabelValues("invalid_session").Inc()
			return nil, ErrInvalidRefreshToken
		}
		if errors.Is(err, repository.ErrSessionNotFound) ||
			errors.Is(err, jwtx.ErrTokenExpired) ||
			errors.Is(err, jwtx.ErrTokenMalformed) ||
			errors.Is(err, jwtx.ErrSignatureInvalid) ||
			errors.Is(err, jwtx.ErrKeyNotFound) ||
			errors.Is(err, repository.ErrPrincipalNotFound) {
			metrics.RefreshRotations.WithLabelValues("invalid_session").Inc()
			log.Info("refresh rejected", logger.Err(err))
			return nil, ErrInvalidRefreshToken
		}
		metrics.RefreshRotations.WithLabelValues("error").Inc()
		log.Error("refresh failed", logger.Err(err))
		return nil, fmt.Errorf("refresh: %w", err)
	}

	metrics.RefreshRotations.WithLabelValues("ok").Inc()
	metrics.AccessTokensIssued.Inc()
	log.Info("refresh ok", logger.JTI(pair.SessionJTI))

	return &dto.TokenPairResult{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// escalateReplay revoca todas las sesiones del sujeto y deja rastro auditable.
// Best-effort: el caller responde 401 genérico pase lo que pase acá.
func (s *refreshService) escalateReplay(ctx context.Context, replay *jwtx.ReplayError, log *zap.Logger) {
	metrics.ReplayDetections.Inc()
	log.Warn("refresh replay detected, revoking all subject sessions",
		logger.SubjectID(replay.SubjectID),
		logger.JTI(replay.JTI),
	)

	n, err := s.deps.Sessions.RemoveAll(ctx, replay.SubjectID)
	if err != nil {
		log.Error("failed to revoke sessions after replay", logger.Err(err))
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:    "refresh.replay_detected",
		SubjectID: replay.SubjectID,
		Detail: map[string]any{
			"jti":              replay.JTI,
			"sessions_revoked": n,
		},
	})
}
