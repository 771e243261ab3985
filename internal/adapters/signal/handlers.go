package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vanhieptech/livegate/internal/core"
)

// connAck is the acknowledgment for connect/disconnect requests. Error
// is a pointer so success serializes as "error": null.
type connAck struct {
	Type         string  `json:"type"`
	IsConnected  bool    `json:"isConnected"`
	IsConnecting bool    `json:"isConnecting"`
	RoomID       string  `json:"roomId,omitempty"`
	UniqueID     string  `json:"uniqueId,omitempty"`
	Error        *string `json:"error"`
}

func errAck(msg string) connAck {
	return connAck{Type: "error", Error: &msg}
}

func (ctl *LiveWSController) handleConnect(ctx context.Context, sid core.SessionID, c *wsClientConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect payload")
		ctl.sendJSON(c, errAck("bad_payload"))
		return
	}

	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("connect rate limited")
		ctl.sendJSON(c, errAck("too many connect attempts"))
		return
	}

	roomID, username, err := ctl.gw.Connect(ctx, sid, p.Username, c)
	if err != nil {
		ctl.sendJSON(c, errAck(err.Error()))
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("username", string(username)).Str("room_id", string(roomID)).Msg("connected")
	ctl.sendJSON(c, connAck{
		Type:        "connected",
		IsConnected: true,
		RoomID:      string(roomID),
		UniqueID:    string(username),
	})
}

func (ctl *LiveWSController) handleDisconnect(sid core.SessionID, c *wsClientConn) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("disconnect")
	ctl.gw.Disconnect(sid)
	ctl.sendJSON(c, connAck{Type: "disconnected"})
}

// handleAIConfig accepts the dashboard's AI settings blob. The config is
// consumed by the analytics service, not this gateway; the relay only
// acknowledges receipt.
func (ctl *LiveWSController) handleAIConfig(sid core.SessionID, c *wsClientConn, data []byte) {
	var p struct {
		Type   string          `json:"type"`
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad ai config payload")
		ctl.sendJSON(c, errAck("bad_payload"))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Int("bytes", len(p.Config)).Msg("ai config received")
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{Type: "aiConfigUpdated"})
}

func (ctl *LiveWSController) handlePing(c *wsClientConn) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
