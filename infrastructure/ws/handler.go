package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
	"github.com/ItsSkellyHer3/ChatIfy/services"
)

const (
	maxMessageSize = 64 * 1024
	pongWait       = 60 * time.Second
)

// Handler owns the websocket endpoint lifecycle: it registers the
// connection with the chat service, pumps outbound events and
// dispatches inbound commands until the peer goes away.
type Handler struct {
	service    services.IChatService
	log        *slog.Logger
	bufferSize int
}

func NewHandler(service services.IChatService, bufferSize int, log *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		bufferSize: bufferSize,
	}
}

// Handle runs for the lifetime of one websocket connection.
func (h *Handler) Handle(conn *websocket.Conn) {
	client := NewClient(conn, h.bufferSize, h.log)
	connID := h.service.Connect(client)
	log := h.log.With("conn_id", connID)
	log.Info("websocket connected")

	go client.WritePump()
	defer func() {
		h.service.Disconnect(connID)
		client.Close()
		log.Info("websocket disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug("read loop ended", "error", err)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.dispatch(connID, raw, log)
	}
}

// dispatch routes one inbound envelope. Malformed input is logged and
// skipped; it never terminates the connection.
func (h *Handler) dispatch(connID string, raw []byte, log *slog.Logger) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug("malformed envelope", "error", err)
		return
	}
	switch env.Event {
	case "identify":
		var uid string
		if err := json.Unmarshal(env.Data, &uid); err != nil {
			log.Debug("malformed identify", "error", err)
			return
		}
		h.service.Identify(connID, uid)
	case "join":
		var cid string
		if err := json.Unmarshal(env.Data, &cid); err != nil {
			log.Debug("malformed join", "error", err)
			return
		}
		h.service.Join(connID, cid)
	case "typing":
		var cmd domain.TypingCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			log.Debug("malformed typing", "error", err)
			return
		}
		h.service.Typing(connID, cmd)
	case "add_reaction":
		var cmd domain.ReactionCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			log.Debug("malformed add_reaction", "error", err)
			return
		}
		h.service.AddReaction(cmd)
	case "send_message":
		var cmd domain.SendMessageCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			log.Debug("malformed send_message", "error", err)
			return
		}
		h.service.SendMessage(cmd)
	default:
		log.Debug("unknown event", "event", env.Event)
	}
}
