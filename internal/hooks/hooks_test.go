package hooks

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-shim/internal/models"
)

const capProbe = Capability("probe")

func TestSlotNewestDecoratorRunsFirst(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	var trace []string
	original := func(s string) string {
		trace = append(trace, "original")
		return s + ":o"
	}
	slot := NewSlot(reg, capProbe, original)

	require.NoError(t, slot.Use(func(next func(string) string) func(string) string {
		return func(s string) string {
			trace = append(trace, "inner")
			return next(s) + ":a"
		}
	}))
	require.NoError(t, slot.Use(func(next func(string) string) func(string) string {
		return func(s string) string {
			trace = append(trace, "outer")
			return next(s) + ":b"
		}
	}))

	assert.Equal(t, "x:o:a:b", slot.Fn()("x"))
	assert.Equal(t, []string{"outer", "inner", "original"}, trace)
	assert.Equal(t, 2, slot.Depth())
}

func TestSlotDecoratorMayShortCircuit(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	originalCalls := 0
	slot := NewSlot(reg, capProbe, func(s string) string {
		originalCalls++
		return s
	})

	require.NoError(t, slot.Use(func(next func(string) string) func(string) string {
		return func(string) string { return "short" }
	}))

	assert.Equal(t, "short", slot.Fn()("ignored"))
	assert.Zero(t, originalCalls)
}

func TestMissingSlotRecordsNoOpInstalls(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	slot := NewMissingSlot[func(int) int](reg, capProbe)

	require.NoError(t, slot.Use(func(next func(int) int) func(int) int {
		return func(int) int { return 1 }
	}))

	assert.False(t, slot.Present())
	assert.Zero(t, slot.Depth())
	assert.Nil(t, slot.Fn())
}

func TestSealedRegistryRefusesInstallation(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	slot := NewSlot(reg, capProbe, func(s string) string { return s })
	require.NoError(t, slot.Use(func(next func(string) string) func(string) string {
		return func(s string) string { return next(s) + ":a" }
	}))

	reg.Seal()
	require.True(t, reg.Sealed())

	err := slot.Use(func(next func(string) string) func(string) string {
		return func(s string) string { return next(s) + ":late" }
	})
	require.ErrorIs(t, err, ErrSealed)
	assert.Equal(t, 1, slot.Depth())
	assert.Equal(t, "x:a", slot.Fn()("x"))

	// Sealing again must stay a no-op.
	reg.Seal()
	require.True(t, reg.Sealed())
}

func TestNewTableBindsOriginalsAndOptionalCapability(t *testing.T) {
	originals := Originals{
		MediaKind: func(env *models.MessageEnvelope) models.MediaKind {
			if env != nil && env.Image != nil {
				return models.MediaKindImage
			}
			return models.MediaKindNone
		},
		TypeLabel: func(*models.MessageEnvelope) string { return models.TypeLabelText },
		IsUnread:  func(*models.Message) bool { return false },
		CreateChatRecord: func(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
			return &models.ChatRecord{ID: id}, nil
		},
		FindChat: func(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
			return &models.ChatRecord{ID: id}, nil
		},
	}

	table := NewTable(zerolog.Nop(), originals)

	assert.True(t, table.MediaKind.Present())
	assert.True(t, table.CreateChatRecord.Present())
	assert.False(t, table.CoerceLID.Present(), "absent original must produce a missing slot")

	env := &models.MessageEnvelope{Image: &models.MediaContent{URL: "u"}}
	assert.Equal(t, models.MediaKindImage, table.MediaKind.Fn()(env))
}
