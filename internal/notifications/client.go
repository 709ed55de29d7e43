package notifications

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/logger"
)

const maxInboundMessageSize = 1024

// Timing holds the keepalive settings for a connection.
type Timing struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	SendBuffer int
}

// TimingFromConfig copies the realtime settings, keeping PingPeriod below PongWait.
func TimingFromConfig(cfg config.RealtimeConfig) Timing {
	t := Timing{
		WriteWait:  cfg.WriteWait,
		PongWait:   cfg.PongWait,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	}
	if t.WriteWait <= 0 {
		t.WriteWait = 10 * time.Second
	}
	if t.PongWait <= 0 {
		t.PongWait = 60 * time.Second
	}
	if t.PingPeriod <= 0 || t.PingPeriod >= t.PongWait {
		t.PingPeriod = t.PongWait * 9 / 10
	}
	if t.SendBuffer <= 0 {
		t.SendBuffer = 16
	}
	return t
}

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	userID   uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
	registry *Registry
	timing   Timing
	logg     *logger.Logger
}

// NewClient wraps conn; it is not registered until Serve runs.
func NewClient(registry *Registry, conn *websocket.Conn, userID uuid.UUID, timing Timing, logg *logger.Logger) *Client {
	return &Client{
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, timing.SendBuffer),
		registry: registry,
		timing:   timing,
		logg:     logg,
	}
}

// UserID returns the user the connection belongs to.
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Serve registers the client and blocks until the connection closes.
func (c *Client) Serve(ctx context.Context) {
	c.registry.Register(c)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump(ctx)
	c.registry.Unregister(c)
	<-done
}

// readPump only services control frames; clients do not send events.
func (c *Client) readPump(ctx context.Context) {
	defer c.closeConn()

	c.conn.SetReadLimit(maxInboundMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !isClosedConn(err) {
				c.logWarn(ctx, "realtime.read_failed: "+err.Error())
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.timing.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.closeConn()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timing.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.timing.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) closeConn() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil && !isClosedConn(err) {
		return err
	}
	return nil
}

func (c *Client) logWarn(ctx context.Context, msg string) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithUserID(ctx, c.userID.String()), msg)
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent)
}
