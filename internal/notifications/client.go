package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	sendBufferSize = 64
	// Inbound frames are only pongs and close frames.
	maxInboundBytes = 1024

	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	// pingEvery must stay below idleTimeout so the peer's pong arrives in time.
	pingEvery = idleTimeout * 9 / 10
)

// WSHub is the part of a hub a Client needs to detach itself.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is one websocket connection owned by a user. Only WritePump
// writes to Conn.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	done     chan struct{}
	stopOnce sync.Once
}

// NewClient creates a Client with a buffered send channel.
func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Done is closed once the client has been told to stop.
func (c *Client) Done() <-chan struct{} { return c.done }

// Stop asks WritePump to send a close frame and exit. It is safe to call
// more than once and from any goroutine.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Run serves the socket and returns only after both pumps have exited,
// so the caller may release Conn afterwards.
func (c *Client) Run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.WritePump()
	}()
	c.ReadPump()
	<-writerDone
}

// ReadPump blocks until the peer disconnects or stops answering pings,
// then detaches the client from its hub. Notification sockets are
// push-only, so inbound payloads are discarded.
func (c *Client) ReadPump() {
	defer c.detach()

	extend := func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	c.Conn.SetReadLimit(maxInboundBytes)
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			middleware.Logger.Debug("notification socket closed unexpectedly",
				slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
		}
		return
	}
}

// WritePump delivers queued events and pings the peer until Stop is
// called or a write fails. It closes Conn on exit, which also ends
// ReadPump.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		_ = c.Conn.Close()
	}()

	for {
		var err error
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case event := <-c.Send:
			err = c.write(websocket.TextMessage, event)
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			middleware.Logger.Debug("notification socket write failed",
				slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, data)
}

func (c *Client) detach() {
	c.Hub.UnregisterClient(c)
	c.Stop()
}

// TrySend queues message without blocking. A full buffer or a stopped
// client drops the message.
func (c *Client) TrySend(message []byte) bool {
	select {
	case <-c.done:
		observability.NotificationsDropped.WithLabelValues("closed").Inc()
		return false
	default:
	}

	select {
	case c.Send <- message:
		return true
	default:
		observability.NotificationsDropped.WithLabelValues("full").Inc()
		middleware.Logger.Warn("notification buffer full, dropping message",
			slog.Uint64("user_id", uint64(c.UserID)), slog.String("hub", c.Hub.Name()))
		return false
	}
}
