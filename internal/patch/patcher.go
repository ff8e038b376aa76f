package patch

import (
	"time"

	"github.com/rs/zerolog"

	"chat-shim/internal/derive"
	"chat-shim/internal/envelope"
	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/models"
	"chat-shim/internal/repair"
)

// Patcher performs the one-time start-up installation: derived attributes as
// soon as the host reports ready, dispatch-table wrappers after a settle
// delay, then the table seals. After that the shim is passive; everything it
// changed is read-only process state.
type Patcher struct {
	table   *hooks.Table
	repair  *repair.Service
	derived *derive.Registry
	signal  host.ReadySignal
	delay   time.Duration
	log     zerolog.Logger
}

// New constructs a Patcher. delay is how long after host readiness the
// dispatch wrappers install; derived attributes install immediately.
func New(table *hooks.Table, svc *repair.Service, derived *derive.Registry, signal host.ReadySignal, delay time.Duration, log zerolog.Logger) *Patcher {
	return &Patcher{
		table:   table,
		repair:  svc,
		derived: derived,
		signal:  signal,
		delay:   delay,
		log:     log.With().Str("component", "patch").Logger(),
	}
}

// Arm registers the two start-up callbacks on the readiness signal.
func (p *Patcher) Arm() {
	p.signal.OnReady(0, p.installDerived)
	p.signal.OnReady(p.delay, p.installWrappers)
}

// installDerived backfills the standard derived-attribute table. Attributes
// the host already defines keep their existing derivations.
func (p *Patcher) installDerived() {
	n := p.derived.InstallAll(p.standardDerivers())
	p.log.Info().Int("installed", n).Msg("derived attributes backfilled")
}

// installWrappers decorates the dispatch table and seals it. The sealed
// table refuses further installation, so a stray second delivery of the
// readiness signal cannot stack wrappers.
func (p *Patcher) installWrappers() {
	report := func(name hooks.Capability, err error) {
		if err != nil {
			p.log.Error().Str("capability", string(name)).Err(err).Msg("wrapper installation failed")
		}
	}

	report(hooks.CapMediaKind, p.table.MediaKind.Use(wrapMediaKind))
	report(hooks.CapTypeLabel, p.table.TypeLabel.Use(wrapTypeLabel))
	report(hooks.CapIsUnread, p.table.IsUnread.Use(wrapIsUnread))
	report(hooks.CapCreateChatRecord, p.table.CreateChatRecord.Use(p.repair.WrapCreate()))
	report(hooks.CapFindChat, p.table.FindChat.Use(p.repair.WrapFind()))
	report(hooks.CapCoerceLID, p.table.CoerceLID.Use(p.repair.WrapCoerce()))

	p.table.Registry.Seal()
	p.log.Info().Msg("dispatch table patched and sealed")
}

// The classification wrappers rebuild the envelope resolver over whatever
// occupied the slot before them, so the captured original becomes the base
// classifier of the new resolution.
func wrapMediaKind(next hooks.MediaKindFn) hooks.MediaKindFn {
	return envelope.NewResolver(envelope.Classifiers{MediaKind: next}).MediaKind
}

func wrapTypeLabel(next hooks.TypeLabelFn) hooks.TypeLabelFn {
	return envelope.NewResolver(envelope.Classifiers{TypeLabel: next}).TypeLabel
}

func wrapIsUnread(next hooks.UnreadFn) hooks.UnreadFn {
	return envelope.NewResolver(envelope.Classifiers{IsUnread: next}).IsUnread
}

// standardDerivers builds the stock attribute table. The preview and unread
// derivers read the dispatch table at call time, so they pick up the patched
// classifiers once the wrappers land.
func (p *Patcher) standardDerivers() map[models.ChatAttribute]derive.Deriver {
	return map[models.ChatAttribute]derive.Deriver{
		models.AttrIsUser: func(rec *models.ChatRecord) any {
			return rec != nil && rec.ID.IsUser()
		},
		models.AttrIsGroup: func(rec *models.ChatRecord) any {
			return rec != nil && rec.ID.IsGroupLike()
		},
		models.AttrIsNewsletter: func(rec *models.ChatRecord) any {
			return rec != nil && rec.ID.IsNewsletter()
		},
		models.AttrChangeNumberNotice: func(rec *models.ChatRecord) any {
			return rec != nil && !rec.PriorID.IsZero()
		},
		models.AttrVisibleInList: func(rec *models.ChatRecord) any {
			return rec != nil && !rec.Hidden
		},
		models.AttrPreviewText: p.derivePreviewText,
		models.AttrHasUnread:   p.deriveHasUnread,
	}
}

func (p *Patcher) derivePreviewText(rec *models.ChatRecord) any {
	if rec == nil || rec.LastMessage == nil {
		return ""
	}
	inner, ok := envelope.Unwrap(rec.LastMessage.Envelope)
	if !ok || inner == nil {
		return ""
	}
	if inner.Text != "" {
		return inner.Text
	}
	if media := envelope.Media(inner); media != nil && media.Caption != "" {
		return media.Caption
	}
	if fn := p.table.MediaKind.Fn(); fn != nil {
		if kind := fn(rec.LastMessage.Envelope); kind != models.MediaKindNone {
			return "[" + string(kind) + "]"
		}
	}
	return ""
}

func (p *Patcher) deriveHasUnread(rec *models.ChatRecord) any {
	if rec == nil {
		return false
	}
	if rec.UnreadCount > 0 {
		return true
	}
	if rec.LastMessage == nil {
		return false
	}
	fn := p.table.IsUnread.Fn()
	if fn == nil {
		return false
	}
	return fn(rec.LastMessage)
}
