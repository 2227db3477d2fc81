package net

import (
	"context"
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"goal-rush/server"
	"goal-rush/server/internal/sim"
	"goal-rush/server/logging"
)

// HTTPHandlerConfig carries the handler's collaborators; zero values get
// sensible defaults.
type HTTPHandlerConfig struct {
	Logger    *log.Logger
	Publisher logging.Publisher
}

// NewHTTPHandler wires the health, diagnostics, and websocket endpoints
// around a room registry.
func NewHTTPHandler(registry *server.Registry, gateway *server.InputGateway, telemetry *server.TelemetryCounters, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Rooms      int    `json:"rooms"`
			TickRate   int    `json:"tickRate"`
			Telemetry  any    `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Rooms:      registry.Count(),
			TickRate:   server.TickRate(),
			Telemetry:  telemetry.Snapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed: %v", err)
			return
		}

		codec := server.JSONCodec()
		if r.URL.Query().Get("codec") == "msgpack" {
			codec = server.MsgpackCodec()
		}

		connID := uuid.NewString()
		conn := server.NewWSConn(raw)
		client := &wsClient{
			connID:    connID,
			conn:      conn,
			codec:     codec,
			registry:  registry,
			gateway:   gateway,
			publisher: publisher,
			logger:    logger,
		}

		defer func() {
			gateway.Forget(connID)
			if room := client.room; room != nil {
				room.HandleDisconnect(connID)
			}
			conn.Close()
		}()

		for {
			_, payload, err := raw.ReadMessage()
			if err != nil {
				return
			}

			var msg server.ClientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.Printf("discarding malformed message from %s: %v", connID, err)
				continue
			}

			if !client.dispatch(msg) {
				return
			}
		}
	})

	return mux
}

// wsClient is the per-connection dispatch state; it lives on the read
// goroutine and is never shared.
type wsClient struct {
	connID string
	conn   server.Conn
	codec  server.Codec

	registry  *server.Registry
	gateway   *server.InputGateway
	publisher logging.Publisher
	logger    *log.Logger

	room *server.Room
}

// dispatch handles one inbound message; false tears the connection down.
func (c *wsClient) dispatch(msg server.ClientMessage) bool {
	switch msg.Type {
	case "create-room":
		return c.handleCreateRoom(msg)
	case "join-room":
		return c.handleJoinRoom(msg)
	case "start-game":
		if c.room == nil {
			return c.sendError(server.NewValidationError("not in a room"))
		}
		if err := c.room.StartGame(c.connID); err != nil {
			return c.sendError(err)
		}
		return true
	case "switch-team":
		if c.room == nil {
			return c.sendError(server.NewValidationError("not in a room"))
		}
		if err := c.room.SwitchTeam(c.connID, sim.Team(msg.Team)); err != nil {
			return c.sendError(err)
		}
		return true
	case "kick-player":
		if c.room == nil {
			return c.sendError(server.NewValidationError("not in a room"))
		}
		if err := c.room.Kick(c.connID, msg.TargetID); err != nil {
			return c.sendError(err)
		}
		return true
	case "reclaim-host":
		if c.room == nil {
			return c.sendError(server.NewValidationError("not in a room"))
		}
		if err := c.room.ReclaimHost(c.connID, msg.HostToken); err != nil {
			return c.sendError(err)
		}
		return true
	case "leave-room":
		if c.room != nil {
			c.room.Leave(c.connID)
			c.room = nil
		}
		return true
	case "player-input":
		if c.room == nil {
			return true
		}
		input, ok := c.gateway.Admit(c.connID, msg)
		if !ok {
			return true
		}
		c.room.ApplyInput(c.connID, input)
		return true
	default:
		c.logger.Printf("ignoring unknown message type %q from %s", msg.Type, c.connID)
		return true
	}
}

func (c *wsClient) handleCreateRoom(msg server.ClientMessage) bool {
	if c.room != nil {
		return c.sendError(server.NewValidationError("already in a room"))
	}

	cfg := sim.DefaultConfig()
	if msg.MatchDuration > 0 {
		cfg.MatchDuration = float64(msg.MatchDuration) * 60
	}
	if msg.EnableFeatures != nil {
		cfg.Obstacles = *msg.EnableFeatures
		cfg.BoostPads = *msg.EnableFeatures
	}

	room, hostToken := c.registry.CreateRoom(cfg)
	result, err := room.AddPlayer(c.connID, c.conn, c.codec, server.JoinOptions{
		Nickname:  msg.Nickname,
		Cosmetics: msg.Cosmetics,
	})
	if err != nil {
		c.registry.Remove(room.ID())
		return c.sendError(err)
	}
	c.room = room

	return c.send(server.RoomCreatedMessage{
		Ver:       server.ProtocolVersion,
		Type:      "room-created",
		RoomID:    room.ID(),
		PlayerID:  result.PlayerID,
		SessionID: result.SessionID,
		HostToken: hostToken,
		Room:      result.Room,
	})
}

func (c *wsClient) handleJoinRoom(msg server.ClientMessage) bool {
	if c.room != nil {
		return c.sendError(server.NewValidationError("already in a room"))
	}

	room, ok := c.registry.Get(msg.RoomID)
	if !ok {
		return c.sendError(server.NewNotFoundError("room %s does not exist", msg.RoomID))
	}

	var result server.JoinResult
	var err error
	if msg.SessionID != "" {
		result, err = room.ReconnectPlayer(msg.SessionID, c.connID, c.conn, c.codec)
	} else {
		result, err = room.AddPlayer(c.connID, c.conn, c.codec, server.JoinOptions{
			Nickname:  msg.Nickname,
			HostToken: msg.HostToken,
			Cosmetics: msg.Cosmetics,
		})
	}
	if err != nil {
		return c.sendError(err)
	}
	c.room = room

	// Late joiners drop straight into a running match.
	if state := room.State(); state == server.StateCountdown || state == server.StatePlaying {
		if err := room.EnterMatch(c.connID); err != nil {
			c.logger.Printf("late entry failed for %s: %v", c.connID, err)
		}
	}

	return c.send(server.RoomJoinedMessage{
		Ver:       server.ProtocolVersion,
		Type:      "room-joined",
		RoomID:    room.ID(),
		PlayerID:  result.PlayerID,
		SessionID: result.SessionID,
		Room:      result.Room,
	})
}

func (c *wsClient) send(payload any) bool {
	data, err := c.codec.Marshal(payload)
	if err != nil {
		c.logger.Printf("failed to marshal response for %s: %v", c.connID, err)
		return true
	}
	if err := c.conn.Send(data, c.codec.Binary()); err != nil {
		c.publisher.Publish(context.Background(), logging.Event{
			Type:     "send_failed",
			Severity: logging.SeverityWarn,
			Category: logging.CategoryNetwork,
			Actor:    logging.EntityRef{ID: c.connID, Kind: logging.EntityKindPlayer},
		})
		return false
	}
	return true
}

func (c *wsClient) sendError(err error) bool {
	return c.send(server.NewErrorMessage(err))
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
