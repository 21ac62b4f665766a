package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/events"
)

// AuditService writes auth audit events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes the audit log to every auth event type.
func (s *AuditService) RegisterHandlers() {
	types := []events.EventType{
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventLogout,
		events.EventCallbackReconciled,
		events.EventAccountProvisioned,
	}
	for _, t := range types {
		s.dispatcher.Subscribe(t, s.record)
	}
}

func (s *AuditService) record(_ context.Context, event events.Event) error {
	s.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
	return nil
}
