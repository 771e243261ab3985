package app

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
	"github.com/vanhieptech/livegate/internal/upstream"
)

// Outbound event envelopes. Payload fields are flattened next to the
// type tag and the relay-assigned receipt timestamp.
type (
	chatMsg struct {
		Type string `json:"type"`
		domain.ChatEvent
		Timestamp int64 `json:"timestamp"`
	}
	giftMsg struct {
		Type string `json:"type"`
		domain.GiftEvent
		Timestamp int64 `json:"timestamp"`
	}
	likeMsg struct {
		Type string `json:"type"`
		domain.LikeEvent
		Timestamp int64 `json:"timestamp"`
	}
	followMsg struct {
		Type string `json:"type"`
		domain.FollowEvent
		Timestamp int64 `json:"timestamp"`
	}
	shareMsg struct {
		Type string `json:"type"`
		domain.ShareEvent
		Timestamp int64 `json:"timestamp"`
	}
	memberMsg struct {
		Type string `json:"type"`
		domain.MemberEvent
		Timestamp int64 `json:"timestamp"`
	}
	roomUserMsg struct {
		Type string `json:"type"`
		domain.RoomUserEvent
		Timestamp int64 `json:"timestamp"`
	}
	stateMsg struct {
		Type         string `json:"type"`
		IsConnected  bool   `json:"isConnected"`
		IsConnecting bool   `json:"isConnecting"`
		Error        string `json:"error"`
		Timestamp    int64  `json:"timestamp"`
	}
)

// attachRelay bridges every inbound event on w to exactly one client
// connection. Each forwarded event is stamped with the wall-clock receipt
// time in milliseconds, never with an upstream-supplied timestamp. On a
// terminal upstream signal (stream end or fatal error) the relay sends a
// synthesized connection-state message and then invokes onTerminal once;
// session teardown stays with the caller.
func attachRelay(w *upstream.Wrapper, conn core.ClientConn, onTerminal func()) {
	w.OnChat(func(ev domain.ChatEvent) {
		send(conn, chatMsg{Type: string(domain.KindChat), ChatEvent: ev, Timestamp: nowMillis()})
	})
	w.OnGift(func(ev domain.GiftEvent) {
		send(conn, giftMsg{Type: string(domain.KindGift), GiftEvent: ev, Timestamp: nowMillis()})
	})
	w.OnLike(func(ev domain.LikeEvent) {
		send(conn, likeMsg{Type: string(domain.KindLike), LikeEvent: ev, Timestamp: nowMillis()})
	})
	w.OnFollow(func(ev domain.FollowEvent) {
		send(conn, followMsg{Type: string(domain.KindFollow), FollowEvent: ev, Timestamp: nowMillis()})
	})
	w.OnShare(func(ev domain.ShareEvent) {
		send(conn, shareMsg{Type: string(domain.KindShare), ShareEvent: ev, Timestamp: nowMillis()})
	})
	w.OnMember(func(ev domain.MemberEvent) {
		send(conn, memberMsg{Type: string(domain.KindMember), MemberEvent: ev, Timestamp: nowMillis()})
	})
	w.OnRoomUser(func(ev domain.RoomUserEvent) {
		send(conn, roomUserMsg{Type: string(domain.KindRoomUser), RoomUserEvent: ev, Timestamp: nowMillis()})
	})
	w.OnStreamEnd(func(domain.StreamEndEvent) {
		send(conn, stateMsg{Type: string(domain.KindStreamEnd), Error: "stream ended", Timestamp: nowMillis()})
		onTerminal()
	})
	w.OnError(func(ev domain.ErrorEvent) {
		send(conn, stateMsg{Type: string(domain.KindError), Error: ev.Message, Timestamp: nowMillis()})
		onTerminal()
	})
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// send drops the event when the client cannot keep up; the relay never
// buffers or reorders.
func send(conn core.ClientConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal outbound event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Msg("dropped outbound event")
	}
}
