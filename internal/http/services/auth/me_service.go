package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// MeService expone el perfil del subject autenticado.
type MeService interface {
	Me(ctx context.Context, subjectID string) (*dto.MeResponse, error)
}

// MeDeps contiene las dependencias del me service.
type MeDeps struct {
	Principals repository.PrincipalStore
	Resolver   *authz.Resolver
}

type meService struct {
	deps MeDeps
}

// NewMeService crea un nuevo MeService.
func NewMeService(deps MeDeps) MeService {
	return &meService{deps: deps}
}

// ErrSubjectNotFound indica que el subject del token ya no existe en el directorio.
var ErrSubjectNotFound = fmt.Errorf("subject not found")

func (s *meService) Me(ctx context.Context, subjectID string) (*dto.MeResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.me"),
		logger.Op("Me"),
	)

	p, err := s.deps.Principals.GetPrincipal(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		log.Error("principal lookup failed", logger.Err(err))
		return nil, fmt.Errorf("get principal: %w", err)
	}

	perms, err := s.deps.Resolver.ResolveFor(ctx, p)
	if err != nil {
		log.Error("permission resolution failed", logger.Err(err))
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	return &dto.MeResponse{
		ID:          p.ID,
		Email:       p.Email,
		Role:        p.Role,
		Permissions: perms,
	}, nil
}
