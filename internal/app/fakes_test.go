package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
)

type fakeFeed struct {
	events chan domain.Event
	done   chan struct{}
	once   sync.Once
	closes int32
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		events: make(chan domain.Event, 16),
		done:   make(chan struct{}),
	}
}

func (f *fakeFeed) ReadEvent() (domain.Event, error) {
	select {
	case ev := <-f.events:
		return ev, nil
	case <-f.done:
		return nil, io.EOF
	}
}

func (f *fakeFeed) Close() error {
	atomic.AddInt32(&f.closes, 1)
	f.once.Do(func() { close(f.done) })
	return nil
}

// fakeDialer hands out one fresh feed per dial and remembers them all.
// prime events are queued into each new feed before Dial returns, so
// they race the caller's post-dial bookkeeping the way a terminal event
// arriving mid-handshake would. When gate is set, dials for gateUser
// block on it.
type fakeDialer struct {
	mu       sync.Mutex
	roomID   domain.RoomID
	err      error
	feeds    []*fakeFeed
	prime    []domain.Event
	gateUser domain.Username
	gate     chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, username domain.Username) (core.FeedConn, domain.RoomID, error) {
	d.mu.Lock()
	gate := d.gate
	gated := gate != nil && username == d.gateUser
	d.mu.Unlock()
	if gated {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, "", d.err
	}
	feed := newFakeFeed()
	for _, ev := range d.prime {
		feed.events <- ev
	}
	d.feeds = append(d.feeds, feed)
	return feed, d.roomID, nil
}

func (d *fakeDialer) setErr(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDialer) feed(i int) *fakeFeed {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feeds[i]
}

// captureConn collects frames sent to one client.
type captureConn struct {
	frames chan core.Frame
}

func newCaptureConn() *captureConn {
	return &captureConn{frames: make(chan core.Frame, 64)}
}

func (c *captureConn) TrySend(f core.Frame) error {
	select {
	case c.frames <- f:
		return nil
	default:
		return errors.New("full")
	}
}

func (c *captureConn) Close() {}

func (c *captureConn) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case f := <-c.frames:
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func (c *captureConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case f := <-c.frames:
		t.Fatalf("unexpected frame: %s", f)
	case <-time.After(50 * time.Millisecond):
	}
}
