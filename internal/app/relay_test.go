package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanhieptech/livegate/internal/domain"
	"github.com/vanhieptech/livegate/internal/upstream"
)

func connectedWrapper(t *testing.T, d *fakeDialer) *upstream.Wrapper {
	t.Helper()
	w := upstream.NewWrapper(d)
	_, err := w.Connect(context.Background(), "alice")
	require.NoError(t, err)
	return w
}

func TestRelayStampsReceiptTime(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()

	before := time.Now().UnixMilli()
	attachRelay(w, conn, func() {})

	d.feed(0).events <- domain.ChatEvent{Comment: "one"}
	d.feed(0).events <- domain.ChatEvent{Comment: "two"}

	first := conn.next(t)
	second := conn.next(t)
	after := time.Now().UnixMilli()

	ts1 := int64(first["timestamp"].(float64))
	ts2 := int64(second["timestamp"].(float64))
	require.GreaterOrEqual(t, ts1, before)
	require.GreaterOrEqual(t, ts2, ts1)
	require.LessOrEqual(t, ts2, after)
}

func TestRelayForwardsEveryKind(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()
	attachRelay(w, conn, func() {})

	feed := d.feed(0)
	feed.events <- domain.ChatEvent{UniqueID: "u", Nickname: "n", Comment: "hi"}
	feed.events <- domain.GiftEvent{UniqueID: "u", GiftName: "Rose", DiamondCount: 1, RepeatCount: 3, RepeatEnd: true}
	feed.events <- domain.LikeEvent{UniqueID: "u", LikeCount: 15, TotalLikeCount: 2100}
	feed.events <- domain.FollowEvent{UniqueID: "u"}
	feed.events <- domain.ShareEvent{UniqueID: "u"}
	feed.events <- domain.MemberEvent{UniqueID: "u", Nickname: "n"}
	feed.events <- domain.RoomUserEvent{ViewerCount: 321}

	wantTypes := []string{"chat", "gift", "like", "follow", "share", "member", "roomUser"}
	for _, want := range wantTypes {
		msg := conn.next(t)
		require.Equal(t, want, msg["type"])
		require.Contains(t, msg, "timestamp")
	}
}

func TestRelayChatPayload(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()
	attachRelay(w, conn, func() {})

	d.feed(0).events <- domain.ChatEvent{UniqueID: "viewer1", Nickname: "Viewer", Comment: "hello"}

	msg := conn.next(t)
	require.Equal(t, "chat", msg["type"])
	require.Equal(t, "viewer1", msg["uniqueId"])
	require.Equal(t, "Viewer", msg["nickname"])
	require.Equal(t, "hello", msg["comment"])
}

func TestRelayRoomUserPayload(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()
	attachRelay(w, conn, func() {})

	d.feed(0).events <- domain.RoomUserEvent{ViewerCount: 321}

	msg := conn.next(t)
	require.Equal(t, "roomUser", msg["type"])
	require.Equal(t, float64(321), msg["viewerCount"])
}

func TestRelayStreamEndInvokesTerminal(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()

	terminal := make(chan struct{}, 1)
	attachRelay(w, conn, func() { terminal <- struct{}{} })

	d.feed(0).events <- domain.StreamEndEvent{}

	msg := conn.next(t)
	require.Equal(t, "streamEnd", msg["type"])
	require.Equal(t, "stream ended", msg["error"])

	select {
	case <-terminal:
	case <-time.After(time.Second):
		t.Fatal("terminal callback not invoked")
	}
}

func TestRelayDoesNotReuseUpstreamTimestamps(t *testing.T) {
	d := &fakeDialer{roomID: "123"}
	w := connectedWrapper(t, d)
	conn := newCaptureConn()
	attachRelay(w, conn, func() {})

	// The event carries no timestamp field of its own; the relay must
	// assign one at forwarding time regardless.
	d.feed(0).events <- domain.LikeEvent{LikeCount: 1}

	msg := conn.next(t)
	ts := int64(msg["timestamp"].(float64))
	require.InDelta(t, time.Now().UnixMilli(), ts, 2000)
}
