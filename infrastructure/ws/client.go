// Package ws is the real-time transport: one Client per websocket
// connection, JSON envelopes on the wire, and a Handler mapping inbound
// events to the chat service pipelines.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

const (
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
)

// Envelope is the wire format for websocket messages in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client adapts one websocket connection into an event sink. Outbound
// events go through a buffered channel drained by WritePump, so a slow
// reader only ever costs itself dropped events, never blocks a broadcast.
//
// The send channel is never closed: shutdown is signaled through done,
// so a Deliver racing a Close returns an error instead of panicking.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	log       *slog.Logger
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, bufferSize int, log *slog.Logger) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Deliver queues an event for the write pump. When the connection is
// closed or the buffer is full the event is dropped and an error
// returned; there is no retry.
func (c *Client) Deliver(e domain.Event) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection closed, %s dropped", e.Name)
	default:
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Envelope{Event: e.Name, Data: data})
	if err != nil {
		return err
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed, %s dropped", e.Name)
	default:
		return fmt.Errorf("send buffer full, %s dropped", e.Name)
	}
}

// WritePump serializes all writes to the connection and keeps it alive
// with pings. It exits when Close is called or a write fails. Events
// still buffered at close time are dropped.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

// Close stops the write pump and fails further deliveries. Safe to call
// more than once and safe to race with Deliver.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
