// Package audit registra eventos administrativos sobre claves y sesiones.
package audit

import (
	"context"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// LogSink escribe eventos de auditoría al logger estructurado.
// A futuro puede cablearse a una DB o a un sink externo.
type LogSink struct{}

// NewLogSink crea el sink por defecto.
func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Record(ctx context.Context, ev repository.AuditEvent) {
	log := logger.From(ctx).With(
		logger.Component("audit"),
		logger.String("action", ev.Action),
	)
	if ev.ActorID != "" {
		log = log.With(logger.String("actor_id", ev.ActorID))
	}
	if ev.SubjectID != "" {
		log = log.With(logger.SubjectID(ev.SubjectID))
	}
	if ev.KID != "" {
		log = log.With(logger.KID(ev.KID))
	}
	if len(ev.Detail) > 0 {
		log = log.With(logger.Any("detail", ev.Detail))
	}
	log.Info("audit event")
}

// Record emite un evento por el sink dado, tolerando sink nil (colaborador opcional).
func Record(ctx context.Context, sink repository.AuditSink, ev repository.AuditEvent) {
	if sink == nil {
		return
	}
	sink.Record(ctx, ev)
}
