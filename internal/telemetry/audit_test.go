package telemetry_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-shim/internal/mocks"
	"chat-shim/internal/telemetry"
)

func TestEmitPublishesVersionedEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "chat-shim", "test", zerolog.Nop())

	var captured telemetry.AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.chat", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(telemetry.AuditEnvelope)
		}).
		Return(nil).Once()

	emitter.Emit(context.Background(), telemetry.EventSelfHealCreated, "9823@lid", map[string]any{"origin": "general"})

	publisher.AssertExpectations(t)
	require.Equal(t, 1, captured.SchemaVersion)
	assert.Equal(t, telemetry.EventSelfHealCreated, captured.EventType)
	assert.Equal(t, "chat-shim", captured.Service)
	assert.Equal(t, "9823@lid", captured.ChatID)
	assert.NotEmpty(t, captured.EventID)
	assert.NotEmpty(t, captured.OccurredAt)
	assert.Equal(t, "general", captured.Fields["origin"])
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "chat-shim", "test", zerolog.Nop())

	publisher.On("Publish", mock.Anything, "audit.chat", mock.Anything).Return(assert.AnError).Once()

	// Must not panic or surface the error.
	emitter.Emit(context.Background(), telemetry.EventRetryExhausted, "1555@user", nil)
	publisher.AssertExpectations(t)
}

func TestEmitOnNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), telemetry.EventAuditTest, "", nil)
}
