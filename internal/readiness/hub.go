package readiness

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chat-shim/internal/host"
)

// Hub delivers the host's "fully ready" signal. Callbacks registered before
// readiness run once when it arrives; callbacks registered afterwards run
// immediately. A minimum delay postpones an individual callback without
// holding up the others. Callbacks run on their own goroutines.
type Hub struct {
	mu      sync.Mutex
	ready   bool
	pending []entry
	log     zerolog.Logger
}

type entry struct {
	delay time.Duration
	fn    func()
}

var _ host.ReadySignal = (*Hub)(nil)

// NewHub creates an unsignaled hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log.With().Str("component", "readiness").Logger()}
}

// OnReady registers fn to run once after the host reports ready, waiting at
// least delay beforehand.
func (h *Hub) OnReady(delay time.Duration, fn func()) {
	h.mu.Lock()
	if !h.ready {
		h.pending = append(h.pending, entry{delay: delay, fn: fn})
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.dispatch(entry{delay: delay, fn: fn})
}

// MarkReady fires every registered callback. Calls after the first are
// no-ops.
func (h *Hub) MarkReady() {
	h.mu.Lock()
	if h.ready {
		h.mu.Unlock()
		return
	}
	h.ready = true
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	h.log.Info().Int("callbacks", len(pending)).Msg("host ready")
	for _, e := range pending {
		h.dispatch(e)
	}
}

// Ready reports whether the host has signaled readiness.
func (h *Hub) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

func (h *Hub) dispatch(e entry) {
	go func() {
		if e.delay > 0 {
			time.Sleep(e.delay)
		}
		e.fn()
	}()
}
