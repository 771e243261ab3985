package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/config"
	"github.com/vanhieptech/livegate/internal/core"
	"github.com/vanhieptech/livegate/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// LiveGateway is the slice of the app gateway the controller needs.
type LiveGateway interface {
	Connect(ctx context.Context, sid core.SessionID, username string, conn core.ClientConn) (domain.RoomID, domain.Username, error)
	Disconnect(sid core.SessionID) bool
}

type LiveWSController struct {
	gw      LiveGateway
	cfg     *config.Config
	limiter *ConnectRateLimiter
}

func NewLiveWSController(gw LiveGateway, cfg *config.Config) *LiveWSController {
	return &LiveWSController{
		gw:      gw,
		cfg:     cfg,
		limiter: NewConnectRateLimiter(cfg.ConnectLimit.Max, cfg.ConnectLimit.Interval),
	}
}

// wsClientConn implements core.ClientConn over one browser socket.
type wsClientConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsClientConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsClientConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleLive upgrades the request and runs the session until the socket
// closes. The session id is minted per socket, not per cookie, so two
// dashboard tabs get independent upstream wrappers.
func (ctl *LiveWSController) HandleLive(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &wsClientConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
