package core

import (
	"context"

	"github.com/vanhieptech/livegate/internal/domain"
)

// FeedConn is one open vendor push stream for a single live room.
// ReadEvent blocks until the next inbound event or a transport error;
// it returns only domain event types from the closed union.
type FeedConn interface {
	ReadEvent() (domain.Event, error)
	Close() error
}

// FeedDialer performs the upstream handshake for a broadcaster handle.
// The vendor wire protocol behind it is opaque to the rest of the system.
type FeedDialer interface {
	Dial(ctx context.Context, username domain.Username) (FeedConn, domain.RoomID, error)
}
