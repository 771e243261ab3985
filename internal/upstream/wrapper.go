// Package upstream owns the lifecycle of vendor live-stream connections.
package upstream

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

var (
	ErrAlreadyConnecting = errors.New("connect already in flight")
	ErrAlreadyConnected  = errors.New("wrapper already connected")
	ErrWrapperFailed     = errors.New("wrapper failed, disconnect before reuse")
	ErrDisconnected      = errors.New("wrapper disconnected")
)

// handlerSet holds one slot per event kind. Handlers within a slot fire
// in registration order; events within a kind arrive in feed order
// because a single read loop drains the feed.
type handlerSet struct {
	chat      []func(domain.ChatEvent)
	gift      []func(domain.GiftEvent)
	like      []func(domain.LikeEvent)
	follow    []func(domain.FollowEvent)
	share     []func(domain.ShareEvent)
	member    []func(domain.MemberEvent)
	roomUser  []func(domain.RoomUserEvent)
	streamEnd []func(domain.StreamEndEvent)
	err       []func(domain.ErrorEvent)
}

// Wrapper owns exactly one upstream live-stream connection.
// State machine: idle -> connecting -> connected -> {failed, disconnected}.
// A wrapper may be reused after an explicit Disconnect; handler slots do
// not survive the reset.
type Wrapper struct {
	dialer core.FeedDialer

	mu       sync.Mutex
	state    State
	feed     core.FeedConn
	roomID   domain.RoomID
	username domain.Username
	lastErr  error

	hmu      sync.RWMutex
	handlers handlerSet
}

func NewWrapper(dialer core.FeedDialer) *Wrapper {
	return &Wrapper{dialer: dialer}
}

// Connect performs the upstream handshake for username. Only one attempt
// may be in flight; a concurrent call fails fast with ErrAlreadyConnecting.
// A Disconnect that lands while the handshake is in flight is honored as
// soon as the dial resolves.
func (w *Wrapper) Connect(ctx context.Context, username domain.Username) (domain.RoomID, error) {
	w.mu.Lock()
	switch w.state {
	case StateConnecting:
		w.mu.Unlock()
		return "", ErrAlreadyConnecting
	case StateConnected:
		w.mu.Unlock()
		return "", ErrAlreadyConnected
	case StateFailed:
		w.mu.Unlock()
		return "", ErrWrapperFailed
	}
	w.state = StateConnecting
	w.username = username
	w.lastErr = nil
	w.mu.Unlock()

	feed, roomID, err := w.dialer.Dial(ctx, username)

	w.mu.Lock()
	if w.state == StateDisconnected {
		w.mu.Unlock()
		if err == nil {
			_ = feed.Close()
		}
		return "", ErrDisconnected
	}
	if err != nil {
		w.state = StateFailed
		w.lastErr = err
		w.mu.Unlock()
		return "", err
	}
	w.feed = feed
	w.roomID = roomID
	w.state = StateConnected
	w.mu.Unlock()

	log.Info().Str("module", "upstream").Str("username", string(username)).Str("room_id", string(roomID)).Msg("upstream connected")
	go w.readLoop(feed)
	return roomID, nil
}

// Disconnect is idempotent. It closes the feed if present, releases all
// registered handlers and transitions to disconnected.
func (w *Wrapper) Disconnect() {
	w.mu.Lock()
	if w.state == StateDisconnected {
		w.mu.Unlock()
		return
	}
	feed := w.feed
	username := w.username
	w.feed = nil
	w.state = StateDisconnected
	w.mu.Unlock()

	if feed != nil {
		_ = feed.Close()
	}
	w.hmu.Lock()
	w.handlers = handlerSet{}
	w.hmu.Unlock()
	log.Info().Str("module", "upstream").Str("username", string(username)).Msg("upstream disconnected")
}

func (w *Wrapper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wrapper) RoomID() domain.RoomID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.roomID
}

func (w *Wrapper) Username() domain.Username {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.username
}

// Err returns the terminal error, if any.
func (w *Wrapper) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Wrapper) OnChat(h func(domain.ChatEvent)) {
	w.hmu.Lock()
	w.handlers.chat = append(w.handlers.chat, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnGift(h func(domain.GiftEvent)) {
	w.hmu.Lock()
	w.handlers.gift = append(w.handlers.gift, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnLike(h func(domain.LikeEvent)) {
	w.hmu.Lock()
	w.handlers.like = append(w.handlers.like, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnFollow(h func(domain.FollowEvent)) {
	w.hmu.Lock()
	w.handlers.follow = append(w.handlers.follow, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnShare(h func(domain.ShareEvent)) {
	w.hmu.Lock()
	w.handlers.share = append(w.handlers.share, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnMember(h func(domain.MemberEvent)) {
	w.hmu.Lock()
	w.handlers.member = append(w.handlers.member, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnRoomUser(h func(domain.RoomUserEvent)) {
	w.hmu.Lock()
	w.handlers.roomUser = append(w.handlers.roomUser, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnStreamEnd(h func(domain.StreamEndEvent)) {
	w.hmu.Lock()
	w.handlers.streamEnd = append(w.handlers.streamEnd, h)
	w.hmu.Unlock()
}

func (w *Wrapper) OnError(h func(domain.ErrorEvent)) {
	w.hmu.Lock()
	w.handlers.err = append(w.handlers.err, h)
	w.hmu.Unlock()
}

// readLoop drains the feed until it errors. A transport error on a
// wrapper that was not deliberately disconnected is surfaced to the
// error slot as a synthesized ErrorEvent. The loop is tied to the feed
// it was spawned for: once w.feed points elsewhere (disconnect, or a
// reuse that already dialed a new feed) the loop is stale and must not
// touch wrapper state or dispatch anything.
func (w *Wrapper) readLoop(feed core.FeedConn) {
	for {
		ev, err := feed.ReadEvent()
		if err != nil {
			w.mu.Lock()
			username := w.username
			current := w.feed == feed
			if current {
				w.state = StateFailed
				w.lastErr = err
				w.feed = nil
			}
			w.mu.Unlock()
			if current {
				_ = feed.Close()
				log.Error().Err(err).Str("module", "upstream").Str("username", string(username)).Msg("feed read error")
				w.dispatch(domain.ErrorEvent{Message: err.Error()})
			}
			return
		}

		w.mu.Lock()
		current := w.feed == feed
		w.mu.Unlock()
		if !current {
			return
		}
		w.dispatch(ev)
	}
}

// dispatch snapshots the handler slots before invoking so a handler may
// trigger Disconnect without deadlocking against the slot mutex.
func (w *Wrapper) dispatch(ev domain.Event) {
	w.hmu.RLock()
	hs := w.handlers
	w.hmu.RUnlock()

	switch e := ev.(type) {
	case domain.ChatEvent:
		for _, h := range hs.chat {
			h(e)
		}
	case domain.GiftEvent:
		for _, h := range hs.gift {
			h(e)
		}
	case domain.LikeEvent:
		for _, h := range hs.like {
			h(e)
		}
	case domain.FollowEvent:
		for _, h := range hs.follow {
			h(e)
		}
	case domain.ShareEvent:
		for _, h := range hs.share {
			h(e)
		}
	case domain.MemberEvent:
		for _, h := range hs.member {
			h(e)
		}
	case domain.RoomUserEvent:
		for _, h := range hs.roomUser {
			h(e)
		}
	case domain.StreamEndEvent:
		for _, h := range hs.streamEnd {
			h(e)
		}
	case domain.ErrorEvent:
		for _, h := range hs.err {
			h(e)
		}
	default:
		log.Warn().Str("module", "upstream").Str("kind", string(ev.Kind())).Msg("event kind without slot")
	}
}
