package lid

import (
	"context"

	"github.com/rs/zerolog"

	"chat-shim/internal/host"
	"chat-shim/internal/models"
)

// Adapter degrades identifier-scheme migration to a soft operation: every
// failure path keeps the original identifier, so callers never branch on an
// error.
type Adapter struct {
	state  host.MigrationState
	mapper host.LIDMap
	log    zerolog.Logger
}

// NewAdapter constructs an Adapter.
func NewAdapter(state host.MigrationState, mapper host.LIDMap, log zerolog.Logger) *Adapter {
	return &Adapter{
		state:  state,
		mapper: mapper,
		log:    log.With().Str("component", "lid").Logger(),
	}
}

// ToMigrated translates a legacy user identifier into the migrated scheme.
// Already-migrated identifiers, non-user identifiers, unmigrated hosts and
// mapping failures all yield the input unchanged.
func (a *Adapter) ToMigrated(ctx context.Context, id models.ChatID) models.ChatID {
	if id.IsLID() || !id.IsUser() {
		return id
	}
	if !a.state.IsLIDMigrated(ctx) {
		return id
	}
	mapped, err := a.mapper.ToUserLID(ctx, id)
	if err != nil {
		a.log.Debug().Str("chat_id", id.String()).Err(err).Msg("lid mapping unavailable, keeping identifier")
		return id
	}
	if !mapped.IsLID() {
		return id
	}
	return mapped
}
