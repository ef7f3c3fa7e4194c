package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the dispatcher.
// Handlers run synchronously on the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
