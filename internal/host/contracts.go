package host

import (
	"context"
	"errors"
	"time"

	"chat-shim/internal/models"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrNoLIDMapping    = errors.New("no lid mapping for identifier")
)

// ChatStore is the slice of the host's chat persistence this layer consumes.
// The records belong to the host; this layer only reads them and creates
// missing ones.
type ChatStore interface {
	// CreateChatRecord is the low-level creation primitive the retry policy
	// decorates.
	CreateChatRecord(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error)
	// FindChat resolves an identifier to its chat, ErrChatNotFound on a miss.
	FindChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error)
	// GetExistingChat is the cheap existence probe the self-healing lookup
	// consults before creating anything.
	GetExistingChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error)
	// CreateChat is the host's high-level creation entry point.
	CreateChat(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error)
}

// ContactStore is the host's contact lookup.
type ContactStore interface {
	GetContact(ctx context.Context, id models.ChatID) (*models.Contact, error)
}

// Capabilities describes the optional primitives a host build exposes.
type Capabilities struct {
	StrictCoerce bool
}

// LIDMap is the host's identifier-scheme converter surface.
type LIDMap interface {
	// ToUserLID maps a legacy user identifier to its migrated counterpart,
	// ErrNoLIDMapping when none exists.
	ToUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error)
	// CoerceUserLID is the strict variant. Only meaningful when Capabilities
	// reports it present.
	CoerceUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error)
	Capabilities() Capabilities
}

// MigrationState reports whether the host has moved to the migrated
// identifier scheme.
type MigrationState interface {
	IsLIDMigrated(ctx context.Context) bool
}

// ReadySignal schedules callbacks for the host's "fully ready" notification.
// Each callback runs exactly once, no earlier than delay after readiness.
type ReadySignal interface {
	OnReady(delay time.Duration, fn func())
}
