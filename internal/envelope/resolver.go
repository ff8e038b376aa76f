package envelope

import "chat-shim/internal/models"

// Classifiers are the host's base payload classifiers. The resolver falls
// back to them once an envelope is fully unwrapped; nil classifiers degrade
// to the safe defaults (no media, "text", not unread).
type Classifiers struct {
	MediaKind func(env *models.MessageEnvelope) models.MediaKind
	TypeLabel func(env *models.MessageEnvelope) string
	IsUnread  func(msg *models.Message) bool
}

// Resolver re-derives message classifications through nested envelope
// wrappers.
type Resolver struct {
	base Classifiers
}

// NewResolver builds a resolver over the given base classifiers.
func NewResolver(base Classifiers) *Resolver {
	return &Resolver{base: base}
}

// MediaKind unwraps env to its innermost concrete payload and classifies it.
// A wrapper without an inner envelope means the content is gone: no media.
func (r *Resolver) MediaKind(env *models.MessageEnvelope) models.MediaKind {
	inner, ok := Unwrap(env)
	if !ok || r.base.MediaKind == nil {
		return models.MediaKindNone
	}
	return r.base.MediaKind(inner)
}

// TypeLabel unwraps env and labels the innermost payload. Unlike MediaKind,
// a stripped envelope still gets the "text" label: every message has a
// coarse type even when its media classification is empty.
func (r *Resolver) TypeLabel(env *models.MessageEnvelope) string {
	inner, ok := Unwrap(env)
	if !ok || r.base.TypeLabel == nil {
		return models.TypeLabelText
	}
	return r.base.TypeLabel(inner)
}

// IsUnread forces the interactive reply subtypes to count as unread and
// defers to the base classifier for everything else. No unwrapping happens
// here; the subtype sits on the message itself.
func (r *Resolver) IsUnread(msg *models.Message) bool {
	if msg != nil && forcesUnread(msg.Subtype) {
		return true
	}
	if r.base.IsUnread == nil {
		return false
	}
	return r.base.IsUnread(msg)
}

// Unwrap walks wrapper envelopes down to the innermost concrete one. The
// second result is false when the chain ends in a wrapper with no inner
// envelope, or when env itself is nil.
func Unwrap(env *models.MessageEnvelope) (*models.MessageEnvelope, bool) {
	for {
		if env == nil {
			return nil, false
		}
		w := wrapperOf(env)
		if w == nil {
			return env, true
		}
		env = w.Inner
	}
}

// Media returns the media payload of env's innermost envelope, or nil when
// there is none.
func Media(env *models.MessageEnvelope) *models.MediaContent {
	inner, ok := Unwrap(env)
	if !ok {
		return nil
	}
	switch {
	case inner.Image != nil:
		return inner.Image
	case inner.Video != nil:
		return inner.Video
	case inner.Audio != nil:
		return inner.Audio
	case inner.Document != nil:
		return inner.Document
	case inner.Sticker != nil:
		return inner.Sticker
	default:
		return nil
	}
}

// wrapperOf picks the wrapper variant by the fixed unwrap priority.
func wrapperOf(env *models.MessageEnvelope) *models.Wrapped {
	switch {
	case env.DeviceSent != nil:
		return env.DeviceSent
	case env.Ephemeral != nil:
		return env.Ephemeral
	case env.ViewOnce != nil:
		return env.ViewOnce
	default:
		return nil
	}
}

func forcesUnread(s models.Subtype) bool {
	switch s {
	case models.SubtypeButtonsResponse,
		models.SubtypeTemplateButtonReply,
		models.SubtypeList,
		models.SubtypeListResponse,
		models.SubtypeHSM:
		return true
	default:
		return false
	}
}
