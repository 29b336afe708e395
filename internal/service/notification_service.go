package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/events"
)

// NotificationService forwards queue events to the (out-of-process)
// notification channel. Delivery itself lives behind the webhook; this
// service only shapes and emits.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
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
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketCalled, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketCompleted, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketCancelled, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketNoShow, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventQueueUpdated, n.handleQueueUpdated)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("service_id", event.ServiceID),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleQueueUpdated(ctx context.Context, event events.Event) error {
	n.logger.Debug("queue_updated",
		zap.String("service_id", event.ServiceID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
