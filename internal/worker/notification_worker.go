package worker

import (
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a Redis
// publisher is configured, forwards every event to the external notifier.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher *events.RedisPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if publisher != nil && dispatcher != nil {
		publisher.Register(dispatcher)
	}
}
