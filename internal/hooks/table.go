package hooks

import (
	"context"

	"github.com/rs/zerolog"

	"chat-shim/internal/models"
)

// Function signatures of the host table entries this layer decorates.
type (
	MediaKindFn        func(env *models.MessageEnvelope) models.MediaKind
	TypeLabelFn        func(env *models.MessageEnvelope) string
	UnreadFn           func(msg *models.Message) bool
	CreateChatRecordFn func(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error)
	FindChatFn         func(ctx context.Context, id models.ChatID) (*models.ChatRecord, error)
	CoerceLIDFn        func(ctx context.Context, id models.ChatID) (models.ChatID, error)
)

// Originals carries the host's undecorated implementations. A nil entry is a
// capability this host build does not expose; its slot still exists but
// records installations as no-ops.
type Originals struct {
	MediaKind        MediaKindFn
	TypeLabel        TypeLabelFn
	IsUnread         UnreadFn
	CreateChatRecord CreateChatRecordFn
	FindChat         FindChatFn
	CoerceLID        CoerceLIDFn
}

// Table is the decorated view of the host function table. Host call sites
// dispatch through the slots' Fn resolutions instead of the raw originals.
type Table struct {
	Registry *Registry

	MediaKind        *Slot[MediaKindFn]
	TypeLabel        *Slot[TypeLabelFn]
	IsUnread         *Slot[UnreadFn]
	CreateChatRecord *Slot[CreateChatRecordFn]
	FindChat         *Slot[FindChatFn]
	CoerceLID        *Slot[CoerceLIDFn]
}

// NewTable builds the dispatch table around the host's originals.
func NewTable(log zerolog.Logger, originals Originals) *Table {
	reg := NewRegistry(log)
	return &Table{
		Registry:         reg,
		MediaKind:        tableSlot(reg, CapMediaKind, originals.MediaKind, originals.MediaKind != nil),
		TypeLabel:        tableSlot(reg, CapTypeLabel, originals.TypeLabel, originals.TypeLabel != nil),
		IsUnread:         tableSlot(reg, CapIsUnread, originals.IsUnread, originals.IsUnread != nil),
		CreateChatRecord: tableSlot(reg, CapCreateChatRecord, originals.CreateChatRecord, originals.CreateChatRecord != nil),
		FindChat:         tableSlot(reg, CapFindChat, originals.FindChat, originals.FindChat != nil),
		CoerceLID:        tableSlot(reg, CapCoerceLID, originals.CoerceLID, originals.CoerceLID != nil),
	}
}

func tableSlot[F any](reg *Registry, name Capability, original F, present bool) *Slot[F] {
	if !present {
		return NewMissingSlot[F](reg, name)
	}
	return NewSlot(reg, name, original)
}
