package repair

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/lid"
	"chat-shim/internal/models"
	"chat-shim/internal/observability"
	"chat-shim/internal/telemetry"
)

const (
	createAttempts   = 5
	createBaseDelay  = time.Second
	indexSettleDelay = 100 * time.Millisecond
)

// Service repairs the host's chat creation and lookup paths: bounded retry
// around record creation, self-healing resolution for migrated identifiers,
// and degraded strict coercion. Callers observe either the unwrapped
// primitive's behavior or a delayed success; never a new error kind.
type Service struct {
	chats    host.ChatStore
	contacts host.ContactStore
	state    host.MigrationState
	lid      *lid.Adapter
	audit    *telemetry.AuditEmitter
	log      zerolog.Logger

	attempts  int
	baseDelay time.Duration
	settle    time.Duration
	wait      func(ctx context.Context, d time.Duration) error
}

// NewService constructs a Service with the production retry policy.
func NewService(chats host.ChatStore, contacts host.ContactStore, state host.MigrationState, adapter *lid.Adapter, audit *telemetry.AuditEmitter, log zerolog.Logger) *Service {
	return &Service{
		chats:     chats,
		contacts:  contacts,
		state:     state,
		lid:       adapter,
		audit:     audit,
		log:       log.With().Str("component", "repair").Logger(),
		attempts:  createAttempts,
		baseDelay: createBaseDelay,
		settle:    indexSettleDelay,
		wait:      sleepContext,
	}
}

// sleepContext is a cooperative wait that aborts when ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WrapCreate decorates the low-level record-creation primitive with account
// LID repair and bounded retry.
func (s *Service) WrapCreate() func(next hooks.CreateChatRecordFn) hooks.CreateChatRecordFn {
	return func(next hooks.CreateChatRecordFn) hooks.CreateChatRecordFn {
		return func(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
			s.ensureAccountLID(ctx, id, opts)
			return s.createWithRetry(ctx, next, id, opts)
		}
	}
}

// ensureAccountLID fills opts.AccountLID on migrated hosts when the caller
// left it empty. Every failure falls back to the target identifier itself;
// this step can never block creation.
func (s *Service) ensureAccountLID(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) {
	if opts == nil || !opts.AccountLID.IsZero() {
		return
	}
	if !s.state.IsLIDMigrated(ctx) {
		return
	}
	account := id
	if id.IsUser() && !id.IsLID() {
		if mapped := s.lid.ToMigrated(ctx, id); mapped.IsLID() {
			account = mapped
		}
	}
	opts.AccountLID = account
}

func (s *Service) createWithRetry(ctx context.Context, create hooks.CreateChatRecordFn, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
	ctx, span := otel.Tracer("chat-shim/repair").Start(ctx, "repair.create_chat_record")
	defer span.End()

	delay := s.baseDelay
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			if err := s.wait(ctx, delay); err != nil {
				s.log.Warn().
					Str("chat_id", id.String()).
					Int("attempts", attempt-1).
					Err(lastErr).
					Msg("retry wait canceled")
				return nil, lastErr
			}
			delay *= 2
		}

		rec, err := create(ctx, id, opts)
		if err == nil {
			observability.RecordCreateAttempt("success")
			if attempt > 1 {
				s.log.Info().Str("chat_id", id.String()).Int("attempt", attempt).Msg("chat record created after retry")
			}
			return rec, nil
		}
		lastErr = err
		observability.RecordCreateAttempt("failure")
		s.log.Warn().Str("chat_id", id.String()).Int("attempt", attempt).Err(err).Msg("chat record creation failed")
	}

	observability.RecordCreateExhausted()
	s.audit.Emit(ctx, telemetry.EventRetryExhausted, id.String(), map[string]any{"attempts": s.attempts})
	// The final attempt's failure surfaces unchanged.
	return nil, lastErr
}

// WrapFind decorates the find-chat primitive with self-healing resolution.
// Only migrated-scheme lookups are intercepted; everything else passes
// straight through.
func (s *Service) WrapFind() func(next hooks.FindChatFn) hooks.FindChatFn {
	return func(next hooks.FindChatFn) hooks.FindChatFn {
		return func(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
			if !id.IsLID() {
				return next(ctx, id)
			}
			return s.findWithHeal(ctx, next, id)
		}
	}
}

func (s *Service) findWithHeal(ctx context.Context, find hooks.FindChatFn, id models.ChatID) (*models.ChatRecord, error) {
	ctx, span := otel.Tracer("chat-shim/repair").Start(ctx, "repair.find_chat")
	defer span.End()

	if rec, err := s.chats.GetExistingChat(ctx, id); err == nil && rec != nil {
		observability.RecordSelfHeal("hit")
		return find(ctx, id)
	}

	contact, err := s.contacts.GetContact(ctx, id)
	if err != nil || contact == nil {
		observability.RecordSelfHeal("miss")
		return find(ctx, id)
	}

	opts := &models.ChatCreationOptions{
		CreatedLocally: true,
		LIDOriginType:  models.LIDOriginGeneral,
	}
	if s.state.IsLIDMigrated(ctx) {
		opts.AccountLID = id
	}
	if _, err := s.chats.CreateChat(ctx, id, opts); err != nil {
		// Opportunistic creation may fail; the lookup continues regardless.
		s.log.Debug().Str("chat_id", id.String()).Err(err).Msg("opportunistic chat creation failed")
	} else {
		s.audit.Emit(ctx, telemetry.EventSelfHealCreated, id.String(), map[string]any{"origin": models.LIDOriginGeneral})
	}

	if err := s.wait(ctx, s.settle); err != nil {
		return find(ctx, id)
	}
	if rec, err := s.chats.GetExistingChat(ctx, id); err == nil && rec != nil {
		observability.RecordSelfHeal("created")
		s.log.Info().Str("chat_id", id.String()).Msg("chat resolved by self-healing lookup")
		return rec, nil
	}

	observability.RecordSelfHeal("fallthrough")
	return find(ctx, id)
}

// WrapCoerce decorates the strict LID coercer so conversion failures pass
// the identifier through instead of surfacing.
func (s *Service) WrapCoerce() func(next hooks.CoerceLIDFn) hooks.CoerceLIDFn {
	return func(next hooks.CoerceLIDFn) hooks.CoerceLIDFn {
		return func(ctx context.Context, id models.ChatID) (models.ChatID, error) {
			coerced, err := next(ctx, id)
			if err != nil {
				observability.RecordCoerceFallback()
				s.log.Debug().Str("chat_id", id.String()).Err(err).Msg("strict coercion degraded to original identifier")
				return id, nil
			}
			return coerced, nil
		}
	}
}
