package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
	"github.com/vanhieptech/livegate/internal/upstream"
)

// Gateway translates client requests into registry and wrapper
// operations. Connect/disconnect handling is serialized per session so a
// rapid reconnect cannot race a disconnect and leak a wrapper; sessions
// never contend with each other, even while one holds its lock across a
// slow upstream handshake.
type Gateway struct {
	registry *Registry
	dialer   core.FeedDialer
	locks    *sessionLocks
}

func NewGateway(registry *Registry, dialer core.FeedDialer) *Gateway {
	return &Gateway{registry: registry, dialer: dialer, locks: newSessionLocks()}
}

func (g *Gateway) Registry() *Registry { return g.registry }

// Connect tears down any wrapper the session already owns, dials the
// upstream room for username and, on success, registers the new wrapper.
// The relay is attached before the dial so a terminal event arriving the
// instant the feed opens still reaches the client; its eviction callback
// serializes behind this call's session lock and therefore always
// observes the registered entry. On failure the registry is left without
// an entry for sid.
func (g *Gateway) Connect(ctx context.Context, sid core.SessionID, rawUsername string, conn core.ClientConn) (domain.RoomID, domain.Username, error) {
	username, err := domain.NewUsername(rawUsername)
	if err != nil {
		return "", "", err
	}

	l := g.locks.acquire(sid)
	defer g.locks.release(sid, l)

	if prior, ok := g.registry.Remove(sid); ok {
		prior.Wrapper.Disconnect()
		log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Str("room", string(prior.RoomID)).Msg("tore down prior wrapper")
	}

	w := upstream.NewWrapper(g.dialer)
	attachRelay(w, conn, func() { g.evict(sid, w) })

	roomID, err := w.Connect(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Str("sid", string(sid)).Str("username", string(username)).Msg("connect failed")
		return "", username, err
	}

	g.registry.Upsert(sid, &Entry{
		Wrapper:  w,
		RoomID:   roomID,
		Username: username,
		Since:    time.Now(),
	})
	return roomID, username, nil
}

// Disconnect removes the session's wrapper, if any, and tears it down.
// No-op when absent. Also invoked implicitly when the client transport
// closes.
func (g *Gateway) Disconnect(sid core.SessionID) bool {
	l := g.locks.acquire(sid)
	defer g.locks.release(sid, l)

	e, ok := g.registry.Remove(sid)
	if !ok {
		return false
	}
	e.Wrapper.Disconnect()
	return true
}

// evict removes sid's entry after a terminal upstream signal, but only
// while it still points at w: the session may have reconnected to a new
// wrapper by the time the old feed winds down.
func (g *Gateway) evict(sid core.SessionID, w *upstream.Wrapper) {
	l := g.locks.acquire(sid)
	defer g.locks.release(sid, l)

	e, ok := g.registry.Get(sid)
	if !ok || e.Wrapper != w {
		return
	}
	g.registry.Remove(sid)
	w.Disconnect()
	log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Str("room", string(e.RoomID)).Msg("evicted after stream end")
}
