package hooks

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Capability names one replaceable entry of the host's function table.
type Capability string

const (
	CapMediaKind        Capability = "media_kind"
	CapTypeLabel        Capability = "type_label"
	CapIsUnread         Capability = "is_unread"
	CapCreateChatRecord Capability = "create_chat_record"
	CapFindChat         Capability = "find_chat"
	CapCoerceLID        Capability = "coerce_lid"
)

// ErrSealed is returned by Slot.Use once the registry is frozen.
var ErrSealed = errors.New("dispatch table sealed")

// Registry tracks the slots of one host function table. Decorators install
// during start-up; Seal freezes the table into its final dispatch state and
// is never undone.
type Registry struct {
	mu     sync.Mutex
	slots  []slotState
	sealed bool
	log    zerolog.Logger
}

type slotState interface {
	Name() Capability
	Present() bool
	Depth() int
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{log: log.With().Str("component", "hooks").Logger()}
}

func (r *Registry) register(s slotState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, s)
}

func (r *Registry) isSealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// Seal freezes every slot. Installations after Seal fail with ErrSealed.
// Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return
	}
	r.sealed = true
	slots := append([]slotState(nil), r.slots...)
	r.mu.Unlock()

	for _, s := range slots {
		r.log.Info().
			Str("capability", string(s.Name())).
			Bool("present", s.Present()).
			Int("depth", s.Depth()).
			Msg("dispatch entry sealed")
	}
}

// Sealed reports whether the table is frozen.
func (r *Registry) Sealed() bool {
	return r.isSealed()
}
