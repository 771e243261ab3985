package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
	"github.com/vanhieptech/livegate/internal/upstream"
)

// Entry is the registry record for one session's live wrapper.
type Entry struct {
	Wrapper  *upstream.Wrapper
	RoomID   domain.RoomID
	Username domain.Username
	Since    time.Time
}

// Registry is the process-wide session-to-wrapper map. At most one
// wrapper exists per session; replacement returns the prior entry so the
// caller can tear it down.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Entry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*Entry)}
}

// Upsert stores e for sid and returns the displaced entry, if any.
// Callers are expected to have torn down the prior wrapper already; a
// live displacement is a programming error and is logged as such.
func (r *Registry) Upsert(sid core.SessionID, e *Entry) *Entry {
	r.mu.Lock()
	prior := r.sessions[sid]
	r.sessions[sid] = e
	r.mu.Unlock()

	if prior != nil {
		log.Error().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(prior.RoomID)).Msg("upsert displaced a live wrapper")
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(e.RoomID)).Msg("registered wrapper")
	return prior
}

func (r *Registry) Get(sid core.SessionID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	return e, ok
}

// Remove deletes and returns the entry for sid so the caller can
// disconnect the wrapper. Returns false if absent.
func (r *Registry) Remove(sid core.SessionID) (*Entry, bool) {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
	}
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed wrapper")
	}
	return e, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StreamInfo is a read-only view for the HTTP listing.
type StreamInfo struct {
	Username    string    `json:"username"`
	RoomID      string    `json:"roomId"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (r *Registry) Snapshot() []StreamInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StreamInfo, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, StreamInfo{
			Username:    string(e.Username),
			RoomID:      string(e.RoomID),
			ConnectedAt: e.Since,
		})
	}
	return out
}
