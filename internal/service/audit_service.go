package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobsync/jobsync-auth/internal/events"
)

// AuditService writes account events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.record)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.record)
	a.dispatcher.Subscribe(events.EventUserLoggedOut, a.record)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.record)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventUserRoleChanged, a.handleRoleChanged)
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleRoleChanged(ctx context.Context, event events.Event) error {
	_ = a.record(ctx, event)
	if p, ok := event.Payload.(events.UserRoleChangedPayload); ok && !p.TokensRevoked {
		a.logger.Warn("role change applies after existing tokens expire",
			zap.String("subject_id", event.SubjectID),
			zap.String("old_role", string(p.OldRole)),
			zap.String("new_role", string(p.NewRole)))
	}
	return nil
}
