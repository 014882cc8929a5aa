package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/pkg/rabbitmq"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, body []byte, options ...rabbitmq.PublishOption) error {
	opts := &rabbitmq.PublishOptions{}
	for _, option := range options {
		option(opts)
	}
	args := m.Called(body, opts.RoutingKey, opts.MessageID)
	return args.Error(0)
}

func testEvent() Event {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return Event{
		ID:         "evt-1",
		Type:       EventActivationCode,
		Email:      "owner@example.com",
		Code:       "123456",
		BusinessID: "b-1",
		ExpiresAt:  now.Add(15 * time.Minute),
		OccurredAt: now,
	}
}

func TestRabbitMQNotifier_Notify(t *testing.T) {
	publisher := &mockPublisher{}
	notifier := NewRabbitMQNotifier(publisher, "auth")

	publisher.On("Publish", mock.MatchedBy(func(body []byte) bool {
		var decoded Event
		return json.Unmarshal(body, &decoded) == nil && decoded.Code == "123456" && decoded.Type == EventActivationCode
	}), "auth.activation_code", "evt-1").Return(nil).Once()

	require.NoError(t, notifier.Notify(context.Background(), testEvent()))
	publisher.AssertExpectations(t)
}

func TestRabbitMQNotifier_PublishError(t *testing.T) {
	publisher := &mockPublisher{}
	notifier := NewRabbitMQNotifier(publisher, "auth")
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	err := notifier.Notify(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestRabbitMQNotifier_RoutingKey(t *testing.T) {
	assert.Equal(t, "auth.password_reset_code", NewRabbitMQNotifier(nil, "auth").RoutingKey(EventPasswordResetCode))
	assert.Equal(t, "password_reset_code", NewRabbitMQNotifier(nil, "").RoutingKey(EventPasswordResetCode))
}

func TestLogNotifier_Notify(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	notifier := NewLogNotifier(logger.NewFromZap(zap.New(core)))

	require.NoError(t, notifier.Notify(context.Background(), testEvent()))

	queued := logs.FilterMessage("notification queued").All()
	require.Len(t, queued, 1)
	assert.Equal(t, "owner@example.com", queued[0].ContextMap()["email"])
	assert.NotContains(t, queued[0].ContextMap(), "code")

	codes := logs.FilterMessage("notification code").All()
	require.Len(t, codes, 1)
	assert.Equal(t, zapcore.DebugLevel, codes[0].Level)
	assert.Equal(t, "123456", codes[0].ContextMap()["code"])
}
