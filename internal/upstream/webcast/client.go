// Package webcast dials the vendor's live push endpoint and decodes its
// JSON envelope feed into domain events. It is the only package that
// knows the vendor wire format.
package webcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
)

var ErrHandshake = errors.New("webcast handshake rejected")

const defaultDialTimeout = 10 * time.Second

// Dialer opens one push stream per Dial call. Safe for concurrent use.
type Dialer struct {
	// URL is the webcast endpoint, e.g. "wss://host/webcast/fetch".
	URL string
	// DialTimeout bounds the socket dial plus the hello frame.
	DialTimeout time.Duration
}

func NewDialer(rawURL string, timeout time.Duration) *Dialer {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &Dialer{URL: rawURL, DialTimeout: timeout}
}

// envelope is the vendor frame: a kind tag plus a kind-specific body.
type envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Dial connects, waits for the hello frame carrying the resolved room id
// and returns the live feed. A vendor error frame during the handshake
// (unknown user, room offline, rate limit) fails the dial.
func (d *Dialer) Dial(ctx context.Context, username domain.Username) (core.FeedConn, domain.RoomID, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, "", fmt.Errorf("webcast url: %w", err)
	}
	q := u.Query()
	q.Set("uniqueId", string(username))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, d.DialTimeout)
	defer cancel()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("webcast dial: %w", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(d.DialTimeout))
	var hello envelope
	if err := ws.ReadJSON(&hello); err != nil {
		_ = ws.Close()
		return nil, "", fmt.Errorf("webcast hello: %w", err)
	}
	_ = ws.SetReadDeadline(time.Time{})

	switch hello.Type {
	case "hello":
		if hello.RoomID == "" {
			_ = ws.Close()
			return nil, "", fmt.Errorf("%w: hello without room id", ErrHandshake)
		}
	case "error":
		_ = ws.Close()
		return nil, "", fmt.Errorf("%w: %s", ErrHandshake, hello.Message)
	default:
		_ = ws.Close()
		return nil, "", fmt.Errorf("%w: unexpected frame %q", ErrHandshake, hello.Type)
	}

	log.Info().Str("module", "webcast").Str("username", string(username)).Str("room_id", hello.RoomID).Msg("feed open")
	return &feedConn{ws: ws}, domain.RoomID(hello.RoomID), nil
}

type feedConn struct {
	ws *websocket.Conn
}

// ReadEvent returns the next decodable event, skipping frames with kinds
// this build does not know about.
func (c *feedConn) ReadEvent() (domain.Event, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		ev, err := decodeEvent(data)
		if err != nil {
			if errors.Is(err, errUnknownKind) {
				log.Debug().Str("module", "webcast").Msg("skipping unknown frame kind")
				continue
			}
			return nil, err
		}
		return ev, nil
	}
}

func (c *feedConn) Close() error {
	return c.ws.Close()
}

var errUnknownKind = errors.New("unknown frame kind")

func decodeEvent(data []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("webcast frame: %w", err)
	}

	unwrap := func(dst any) error {
		if len(env.Data) == 0 {
			return nil
		}
		return json.Unmarshal(env.Data, dst)
	}

	switch domain.EventKind(env.Type) {
	case domain.KindChat:
		var ev domain.ChatEvent
		return ev, unwrap(&ev)
	case domain.KindGift:
		var ev domain.GiftEvent
		return ev, unwrap(&ev)
	case domain.KindLike:
		var ev domain.LikeEvent
		return ev, unwrap(&ev)
	case domain.KindFollow:
		var ev domain.FollowEvent
		return ev, unwrap(&ev)
	case domain.KindShare:
		var ev domain.ShareEvent
		return ev, unwrap(&ev)
	case domain.KindMember:
		var ev domain.MemberEvent
		return ev, unwrap(&ev)
	case domain.KindRoomUser:
		var ev domain.RoomUserEvent
		return ev, unwrap(&ev)
	case domain.KindStreamEnd:
		return domain.StreamEndEvent{}, nil
	case domain.KindError:
		return domain.ErrorEvent{Message: env.Message}, nil
	}
	return nil, errUnknownKind
}
