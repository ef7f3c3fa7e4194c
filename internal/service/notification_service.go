package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/events"
)

// NotificationService turns activity events into email and webhook notifications.
// Delivery is stubbed: both channels only log what would be sent.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTeamCreated,
		events.EventTeamDeleted,
		events.EventMemberRoleChanged,
		events.EventMemberRemoved,
		events.EventMemberLeft,
		events.EventTaskCreated,
		events.EventTaskStatusChanged,
	} {
		n.dispatcher.Subscribe(t, n.handleActivity)
	}
	n.dispatcher.Subscribe(events.EventMemberAdded, n.handleMemberAdded)
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
}

func (n *NotificationService) handleActivity(ctx context.Context, event events.Event) error {
	n.logger.Info("team activity",
		zap.String("event_type", string(event.Type)),
		zap.String("team_id", event.TeamID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMemberAdded(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.MemberPayload)
	n.logger.Info("MemberAdded",
		zap.String("team_id", event.TeamID),
		zap.String("user_id", payload.UserID),
		zap.String("role", string(payload.Role)))
	n.sendEmailNotificationStub(ctx, event, payload.UserID)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TaskAssignedPayload)
	n.logger.Info("TaskAssigned",
		zap.String("team_id", event.TeamID),
		zap.String("task_id", payload.TaskID))
	if payload.AssigneeID != nil {
		n.sendEmailNotificationStub(ctx, event, *payload.AssigneeID)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, recipientID string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_id", recipientID),
		zap.String("team_id", event.TeamID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("team_id", event.TeamID),
		zap.String("event_type", string(event.Type)))
}
