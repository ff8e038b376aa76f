package hooks

import (
	"sync"

	"chat-shim/internal/observability"
)

// Slot holds the decorator chain for one host capability whose callable has
// type F. A slot whose target is absent records installations as no-ops and
// resolves to the zero F; callers gate dispatch on Present.
type Slot[F any] struct {
	mu       sync.Mutex
	reg      *Registry
	name     Capability
	present  bool
	resolved F
	depth    int
}

// NewSlot binds a slot to the host's original function.
func NewSlot[F any](reg *Registry, name Capability, original F) *Slot[F] {
	s := &Slot[F]{reg: reg, name: name, present: true, resolved: original}
	reg.register(s)
	return s
}

// NewMissingSlot declares a capability this host build does not expose.
func NewMissingSlot[F any](reg *Registry, name Capability) *Slot[F] {
	s := &Slot[F]{reg: reg, name: name}
	reg.register(s)
	return s
}

// Use installs mw at the head of the chain. The previous resolution is
// passed to mw as next, so the newest decorator runs first and delegates
// through its captured next. Installing on an absent target is a recorded
// no-op; installing after Seal returns ErrSealed.
func (s *Slot[F]) Use(mw func(next F) F) error {
	if s.reg.isSealed() {
		observability.RecordHookInstall(string(s.name), "rejected")
		return ErrSealed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		observability.RecordHookInstall(string(s.name), "skipped")
		s.reg.log.Debug().Str("capability", string(s.name)).Msg("target absent, decorator skipped")
		return nil
	}
	s.resolved = mw(s.resolved)
	s.depth++
	observability.RecordHookInstall(string(s.name), "installed")
	return nil
}

// Fn returns the current resolution. That is the original function until
// decorators install, then the full chain. Absent targets resolve to the
// zero F.
func (s *Slot[F]) Fn() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Present reports whether the host exposes this capability.
func (s *Slot[F]) Present() bool {
	return s.present
}

// Depth returns the number of installed decorators.
func (s *Slot[F]) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// Name returns the capability this slot decorates.
func (s *Slot[F]) Name() Capability {
	return s.name
}
