package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Publisher publishes audit events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Audit event types emitted by this layer.
const (
	EventSelfHealCreated  = "chat.selfheal.created"
	EventRetryExhausted   = "chat.create.retry_exhausted"
	EventHostConnected    = "hostlink.connected"
	EventHostDisconnected = "hostlink.disconnected"
	EventAuditTest        = "audit.test"
)

// AuditEnvelope is the versioned wire shape of one audit event.
type AuditEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	EventID       string         `json:"event_id"`
	ChatID        string         `json:"chat_id,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// AuditEmitter publishes audit envelopes for the repair layer's visible side
// effects. Emission is best effort: publish failures are logged and
// swallowed so audit plumbing can never break a repair path.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	log         zerolog.Logger
}

// NewAuditEmitter constructs an AuditEmitter.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, log zerolog.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log.With().Str("component", "audit").Logger(),
	}
}

// Emit publishes one event. Safe to call on a nil emitter.
func (e *AuditEmitter) Emit(ctx context.Context, eventType, chatID string, fields map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		EventID:       uuid.NewString(),
		ChatID:        chatID,
		Fields:        fields,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.log.Warn().Str("event_type", eventType).Err(err).Msg("audit publish failed")
	}
}
