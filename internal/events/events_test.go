package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/domain"
)

type mockPublisher struct {
	PublishFunc func(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	return m.PublishFunc(ctx, channel, message)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketEscalated, TicketID: "t1"}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRedisPublisherForwardsJSON(t *testing.T) {
	var gotChannel string
	var gotBody []byte
	pub := &mockPublisher{PublishFunc: func(_ context.Context, channel string, message interface{}) *redis.IntCmd {
		gotChannel = channel
		gotBody = message.([]byte)
		return redis.NewIntResult(1, nil)
	}}

	d := NewInMemoryDispatcher(nil)
	NewRedisPublisher(pub, "ops:notifications", nil).Register(d)

	event := Event{
		ID:       "e1",
		Type:     EventTicketStatusChanged,
		TicketID: "t1",
		Status:   domain.TicketStatusResolved,
		Customer: &CustomerContact{ID: "c1", Name: "Ana", WhatsApp: "+5511999"},
		Payload:  TicketStatusChangedPayload{OldStatus: domain.TicketStatusInProgress, NewStatus: domain.TicketStatusResolved},
	}
	require.NoError(t, d.Publish(context.Background(), event))

	assert.Equal(t, "ops:notifications", gotChannel)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "ticket_status_changed", decoded["type"])
	assert.Equal(t, "RESOLVED", decoded["status"])
	assert.Equal(t, "+5511999", decoded["customer"].(map[string]any)["whatsapp"])
}

func TestRedisPublisherSurfacesErrors(t *testing.T) {
	pub := &mockPublisher{PublishFunc: func(context.Context, string, interface{}) *redis.IntCmd {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}}
	err := NewRedisPublisher(pub, "ch", nil).Handle(context.Background(), Event{Type: EventTicketCreated})
	assert.ErrorContains(t, err, "connection refused")
}
