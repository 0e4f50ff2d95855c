// Package gateway owns the realtime channel to the game server: it dials,
// keeps the socket alive, routes inbound messages onto the session loop and
// redials after a fixed delay whenever the socket closes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/models"
)

var (
	// ErrNotConnected is returned by Send while the channel is down.
	ErrNotConnected = errors.New("channel not connected")
	// ErrSendBufferFull is returned by Send when the writer cannot keep up.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Handler receives parsed inbound messages. Calls happen on the session loop.
type Handler interface {
	HandleSnapshot(s *models.Snapshot)
	HandlePeekResult(p models.PeekResult)
}

// StatusHandler is optionally implemented by a Handler that wants to know
// when the channel opens and closes.
type StatusHandler interface {
	HandleConnection(open bool)
}

// Poster runs a function on the session loop.
type Poster interface {
	Post(fn func())
}

// ConnectionConfig holds configuration for the server channel
type ConnectionConfig struct {
	ServerURL string
	RoomID    string
	ClientID  string

	// ReconnectDelay is waited before every redial. Retries never stop and
	// the delay never grows.
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	// ReadTimeout is how long the channel may stay silent, pongs included,
	// before it is considered dead. It must exceed PingInterval.
	ReadTimeout      time.Duration
	MaxMessageSize   int64
	ReadBufferSize   int
	WriteBufferSize  int
	SendBufferSize   int
}

// DefaultConnectionConfig returns default channel configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		MaxMessageSize:   1 << 20, // snapshots carry every answer of the room
		ReadBufferSize:   4096,
		WriteBufferSize:  1024,
		SendBufferSize:   64,
	}
}

// withDefaults fills unset tuning values. A zero ReconnectDelay is kept.
func (c ConnectionConfig) withDefaults() ConnectionConfig {
	d := DefaultConnectionConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReadTimeout <= c.PingInterval {
		c.ReadTimeout = 2 * c.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	return c
}

// ConnectionManager keeps one channel open per session.
type ConnectionManager struct {
	config  ConnectionConfig
	dialer  *websocket.Dialer
	clock   clockwork.Clock
	poster  Poster
	handler Handler

	mu   sync.RWMutex
	conn *connection

	dials atomic.Int64
}

type connection struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *connection) close(timeout time.Duration) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(timeout))
		c.ws.Close()
	})
}

// NewConnectionManager creates a manager. Nothing is dialed until Run.
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock, poster Poster, handler Handler) *ConnectionManager {
	config = config.withDefaults()
	return &ConnectionManager{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
		clock:   clock,
		poster:  poster,
		handler: handler,
	}
}

// ChannelURL derives the websocket address of a client in a room. http and
// https server URLs are mapped to ws and wss.
func ChannelURL(serverURL, roomID, clientID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if roomID == "" || clientID == "" {
		return "", fmt.Errorf("room id and client id are required")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(roomID) + "/" + url.PathEscape(clientID)
	return u.String(), nil
}

// Run dials and serves the channel until ctx is done, redialing after
// ReconnectDelay whenever a dial fails or the socket closes.
func (cm *ConnectionManager) Run(ctx context.Context) error {
	target, err := ChannelURL(cm.config.ServerURL, cm.config.RoomID, cm.config.ClientID)
	if err != nil {
		return err
	}

	log.Info().
		Str("room_id", cm.config.RoomID).
		Str("client_id", cm.config.ClientID).
		Msg("connection manager started")

	for {
		cm.dials.Add(1)
		ws, _, err := cm.dialer.DialContext(ctx, target, nil)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn().Err(err).Dur("retry_in", cm.config.ReconnectDelay).Msg("failed to connect")
		} else {
			cm.serve(ctx, ws)
			if ctx.Err() != nil {
				break
			}
			log.Warn().Dur("retry_in", cm.config.ReconnectDelay).Msg("channel closed")
		}

		select {
		case <-ctx.Done():
		case <-cm.clock.After(cm.config.ReconnectDelay):
			continue
		}
		break
	}

	log.Info().Msg("connection manager shutting down")
	return nil
}

// Dials is the number of connection attempts made so far.
func (cm *ConnectionManager) Dials() int64 { return cm.dials.Load() }

// IsOpen reports whether the channel is currently connected.
func (cm *ConnectionManager) IsOpen() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn != nil
}

// Send queues one text message for the writer. It never blocks.
func (cm *ConnectionManager) Send(data []byte) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.conn == nil {
		return ErrNotConnected
	}
	select {
	case cm.conn.send <- data:
		return nil
	case <-cm.conn.done:
		return ErrNotConnected
	default:
		return ErrSendBufferFull
	}
}

// serve runs one connected socket until it closes or ctx is done.
func (cm *ConnectionManager) serve(ctx context.Context, ws *websocket.Conn) {
	c := &connection{
		ws:   ws,
		send: make(chan []byte, cm.config.SendBufferSize),
		done: make(chan struct{}),
	}

	cm.mu.Lock()
	cm.conn = c
	cm.mu.Unlock()
	cm.notify(true)

	log.Info().Str("room_id", cm.config.RoomID).Msg("channel connected")

	stop := context.AfterFunc(ctx, func() { c.close(cm.config.WriteTimeout) })
	defer stop()

	go cm.writePump(c)
	cm.readPump(c)

	cm.mu.Lock()
	cm.conn = nil
	cm.mu.Unlock()
	c.close(cm.config.WriteTimeout)
	cm.notify(false)
}

func (cm *ConnectionManager) notify(open bool) {
	if sh, ok := cm.handler.(StatusHandler); ok {
		cm.poster.Post(func() { sh.HandleConnection(open) })
	}
}

// writePump is the only writer of the socket.
func (cm *ConnectionManager) writePump(c *connection) {
	ticker := cm.clock.NewTicker(cm.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close(cm.config.WriteTimeout)
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write message to channel")
				return
			}

		case <-ticker.Chan():
			c.ws.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

func (cm *ConnectionManager) readPump(c *connection) {
	c.ws.SetReadLimit(cm.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected channel close")
			}
			return
		}
		cm.handleMessage(message)
		c.ws.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	}
}

// handleMessage routes one inbound message. Malformed messages are dropped.
func (cm *ConnectionManager) handleMessage(raw []byte) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(raw)).Msg("dropping malformed message")
		return
	}

	payload, err := ParsePayload(env)
	if err != nil {
		if errors.Is(err, ErrUnknownMessage) {
			log.Debug().Str("type", string(env.Type)).Msg("ignoring message")
			return
		}
		log.Warn().Err(err).Str("type", string(env.Type)).Msg("dropping malformed message")
		return
	}

	switch p := payload.(type) {
	case *models.Snapshot:
		cm.poster.Post(func() { cm.handler.HandleSnapshot(p) })
	case models.PeekResult:
		cm.poster.Post(func() { cm.handler.HandlePeekResult(p) })
	}
}
