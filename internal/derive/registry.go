package derive

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"chat-shim/internal/models"
	"chat-shim/internal/observability"
)

// Deriver computes one lazy attribute from a chat record.
type Deriver func(rec *models.ChatRecord) any

// Registry holds the derived-attribute table. Installation is first writer
// wins: once a name is bound its deriver never changes, so repeated
// registration passes (for example after a reconnect) are harmless.
type Registry struct {
	mu       sync.RWMutex
	derivers map[models.ChatAttribute]Deriver
	log      zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		derivers: make(map[models.ChatAttribute]Deriver),
		log:      log.With().Str("component", "derive").Logger(),
	}
}

// Install binds fn to attr unless the name is already taken. It reports
// whether fn was stored.
func (r *Registry) Install(attr models.ChatAttribute, fn Deriver) bool {
	if fn == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.derivers[attr]; exists {
		observability.RecordDeriveInstall("duplicate")
		return false
	}
	r.derivers[attr] = fn
	observability.RecordDeriveInstall("installed")
	r.log.Debug().Str("attribute", string(attr)).Msg("derived attribute installed")
	return true
}

// InstallAll installs every entry of table and returns how many were stored.
func (r *Registry) InstallAll(table map[models.ChatAttribute]Deriver) int {
	installed := 0
	for attr, fn := range table {
		if r.Install(attr, fn) {
			installed++
		}
	}
	return installed
}

// Derive computes attr for rec. The second return reports whether a deriver
// is installed under that name.
func (r *Registry) Derive(attr models.ChatAttribute, rec *models.ChatRecord) (any, bool) {
	r.mu.RLock()
	fn, ok := r.derivers[attr]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(rec), true
}

// Attributes returns the installed attribute names in sorted order.
func (r *Registry) Attributes() []models.ChatAttribute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attrs := make([]models.ChatAttribute, 0, len(r.derivers))
	for attr := range r.derivers {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}
