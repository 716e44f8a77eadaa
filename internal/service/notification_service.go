package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/config"
	"github.com/ispdesk/ops-console/internal/events"
)

// Channel names a customer notification channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// NotificationService reacts to ticket events. Delivery is stubbed: it only
// decides which channels apply and logs them.
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
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.notifyCustomer(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.String("status", string(event.Status)))
	n.notifyCustomer(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketEscalated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// Channels lists the stub channels that would reach the event's customer.
func (n *NotificationService) Channels(event events.Event) []Channel {
	c := event.Customer
	if c == nil {
		return nil
	}
	var out []Channel
	if strings.TrimSpace(c.Email) != "" && strings.TrimSpace(n.cfg.EmailFrom) != "" {
		out = append(out, ChannelEmail)
	}
	if strings.TrimSpace(c.Phone) != "" && strings.TrimSpace(n.cfg.SMSSender) != "" {
		out = append(out, ChannelSMS)
	}
	if strings.TrimSpace(c.WhatsApp) != "" && strings.TrimSpace(n.cfg.WhatsAppSender) != "" {
		out = append(out, ChannelWhatsApp)
	}
	return out
}

func (n *NotificationService) notifyCustomer(_ context.Context, event events.Event) {
	for _, ch := range n.Channels(event) {
		n.logger.Debug("sendNotificationStub",
			zap.String("channel", string(ch)),
			zap.String("ticket_id", event.TicketID),
			zap.String("customer_id", event.Customer.ID),
			zap.String("event_type", string(event.Type)))
	}
}
