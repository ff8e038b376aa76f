package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-shim/internal/models"
)

func baseClassifiers() Classifiers {
	return Classifiers{
		MediaKind: func(env *models.MessageEnvelope) models.MediaKind {
			switch {
			case env.Image != nil:
				return models.MediaKindImage
			case env.Video != nil:
				return models.MediaKindVideo
			default:
				return models.MediaKindNone
			}
		},
		TypeLabel: func(env *models.MessageEnvelope) string {
			if env.Image != nil {
				return "image"
			}
			return models.TypeLabelText
		},
	}
}

func wrapEphemeral(inner *models.MessageEnvelope) *models.MessageEnvelope {
	return &models.MessageEnvelope{Ephemeral: &models.Wrapped{Inner: inner}}
}

func TestMediaKindUnwrapsNestedWrappers(t *testing.T) {
	r := NewResolver(baseClassifiers())

	concrete := &models.MessageEnvelope{Image: &models.MediaContent{URL: "u"}}
	env := &models.MessageEnvelope{
		DeviceSent: &models.Wrapped{Inner: wrapEphemeral(&models.MessageEnvelope{
			ViewOnce: &models.Wrapped{Inner: concrete},
		})},
	}

	assert.Equal(t, models.MediaKindImage, r.MediaKind(env))
	assert.Equal(t, "image", r.TypeLabel(env))
}

func TestUnwrapTerminatesOnStrippedContent(t *testing.T) {
	r := NewResolver(baseClassifiers())

	// Wrapper chains of any depth ending without an inner payload.
	for depth := 1; depth <= 6; depth++ {
		env := &models.MessageEnvelope{ViewOnce: &models.Wrapped{}}
		for i := 1; i < depth; i++ {
			env = wrapEphemeral(env)
		}
		assert.Equal(t, models.MediaKindNone, r.MediaKind(env), "depth %d", depth)
		assert.Equal(t, models.TypeLabelText, r.TypeLabel(env), "depth %d", depth)
	}
}

func TestResolverTotalOverNilInput(t *testing.T) {
	r := NewResolver(baseClassifiers())

	assert.Equal(t, models.MediaKindNone, r.MediaKind(nil))
	assert.Equal(t, models.TypeLabelText, r.TypeLabel(nil))
	assert.False(t, r.IsUnread(nil))
}

func TestUnwrapPriorityIsDeterministic(t *testing.T) {
	r := NewResolver(baseClassifiers())

	// Multiple wrapper tags on one envelope should not occur, but when they
	// do the device-sent branch wins, then ephemeral, then view-once.
	image := &models.MessageEnvelope{Image: &models.MediaContent{}}
	video := &models.MessageEnvelope{Video: &models.MediaContent{}}

	env := &models.MessageEnvelope{
		DeviceSent: &models.Wrapped{Inner: image},
		Ephemeral:  &models.Wrapped{Inner: video},
		ViewOnce:   &models.Wrapped{Inner: video},
	}
	assert.Equal(t, models.MediaKindImage, r.MediaKind(env))

	env = &models.MessageEnvelope{
		Ephemeral: &models.Wrapped{Inner: image},
		ViewOnce:  &models.Wrapped{Inner: video},
	}
	assert.Equal(t, models.MediaKindImage, r.MediaKind(env))
}

func TestConcreteEnvelopeDelegatesToBase(t *testing.T) {
	called := 0
	r := NewResolver(Classifiers{
		MediaKind: func(env *models.MessageEnvelope) models.MediaKind {
			called++
			require.NotNil(t, env.Video)
			return models.MediaKindVideo
		},
	})

	env := &models.MessageEnvelope{Video: &models.MediaContent{}}
	assert.Equal(t, models.MediaKindVideo, r.MediaKind(env))
	assert.Equal(t, 1, called)
}

func TestIsUnreadOverridesInteractiveSubtypes(t *testing.T) {
	baseCalls := 0
	r := NewResolver(Classifiers{
		IsUnread: func(*models.Message) bool {
			baseCalls++
			return false
		},
	})

	for _, subtype := range []models.Subtype{
		models.SubtypeButtonsResponse,
		models.SubtypeTemplateButtonReply,
		models.SubtypeList,
		models.SubtypeListResponse,
		models.SubtypeHSM,
	} {
		msg := &models.Message{Subtype: subtype}
		assert.True(t, r.IsUnread(msg), "subtype %s", subtype)
	}
	assert.Zero(t, baseCalls, "override subtypes must not consult the base classifier")
}

func TestIsUnreadDelegatesForOtherSubtypes(t *testing.T) {
	for _, want := range []bool{true, false} {
		want := want
		r := NewResolver(Classifiers{
			IsUnread: func(*models.Message) bool { return want },
		})
		msg := &models.Message{Subtype: ""}
		assert.Equal(t, want, r.IsUnread(msg))
	}
}
