package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/metrics"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// LoginService define las operaciones de login por password.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest, meta repository.ClientMeta) (*dto.TokenPairResult, error)
}

// LoginDeps contiene las dependencias del login service.
type LoginDeps struct {
	Issuer      *jwtx.Issuer
	Credentials repository.CredentialVerifier
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea un nuevo LoginService.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

// Login errors
var (
	ErrMissingLoginFields  = fmt.Errorf("missing required fields")
	ErrBadCredentials      = fmt.Errorf("invalid credentials")
	ErrTokenIssuanceFailed = fmt.Errorf("failed to issue tokens")
)

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest, meta repository.ClientMeta) (*dto.TokenPairResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingLoginFields
	}

	p, err := s.deps.Credentials.VerifyCredentials(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) || errors.Is(err, repository.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			log.Info("login rejected")
			return nil, ErrBadCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("credential verification failed", logger.Err(err))
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	access, accessExp, err := s.deps.Issuer.IssueAccessToken(p.ID, p.Role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("access token issuance failed", logger.Err(err))
		return nil, ErrTokenIssuanceFailed
	}

	refresh, sess, err := s.deps.Issuer.IssueRefreshToken(ctx, p.ID, meta)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("refresh token issuance failed", logger.Err(err))
		return nil, ErrTokenIssuanceFailed
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	metrics.AccessTokensIssued.Inc()
	log.Info("login ok", logger.SubjectID(p.ID), logger.JTI(sess.JTI))

	return &dto.TokenPairResult{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: sess.ExpiresAt,
		SubjectID:        p.ID,
	}, nil
}
