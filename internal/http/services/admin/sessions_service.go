package admin

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/shopauth/internal/audit"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/admin"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// SessionsService administra las sesiones de refresh de un sujeto.
type SessionsService interface {
	List(ctx context.Context, subjectID string) ([]dto.SessionResponse, error)
	Revoke(ctx context.Context, actorID, subjectID, jti string) error
	RevokeAll(ctx context.Context, actorID, subjectID string) (int, error)
}

// SessionsDeps contiene las dependencias del sessions service.
type SessionsDeps struct {
	Sessions repository.SessionStore
	Audit    repository.AuditSink
}

type sessionsService struct {
	deps SessionsDeps
}

// NewSessionsService crea un nuevo SessionsService.
func NewSessionsService(deps SessionsDeps) SessionsService {
	return &sessionsService{deps: deps}
}

func (s *sessionsService) List(ctx context.Context, subjectID string) ([]dto.SessionResponse, error) {
	sessions, err := s.deps.Sessions.List(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, ss := range sessions {
		out = append(out, dto.SessionResponse{
			JTI:       ss.JTI,
			CreatedAt: ss.CreatedAt,
			ExpiresAt: ss.ExpiresAt,
			IP:        ss.Client.IP,
			UserAgent: ss.Client.UserAgent,
		})
	}
	return out, nil
}

func (s *sessionsService) Revoke(ctx context.Context, actorID, subjectID, jti string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.sessions"),
		logger.Op("Revoke"),
	)

	if err := s.deps.Sessions.Remove(ctx, subjectID, jti); err != nil {
		return err
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:    "sessions.revoke",
		ActorID:   actorID,
		SubjectID: subjectID,
		Detail:    map[string]any{"jti": jti},
	})
	log.Info("session revoked by admin", logger.SubjectID(subjectID), logger.JTI(jti))
	return nil
}

func (s *sessionsService) RevokeAll(ctx context.Context, actorID, subjectID string) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.sessions"),
		logger.Op("RevokeAll"),
	)

	n, err := s.deps.Sessions.RemoveAll(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:    "sessions.revoke_all",
		ActorID:   actorID,
		SubjectID: subjectID,
		Detail:    map[string]any{"revoked": n},
	})
	log.Info("all sessions revoked by admin", logger.SubjectID(subjectID), logger.Count(n))
	return n, nil
}
