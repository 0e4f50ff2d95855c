// Package relay fans applied presentation effects out over NATS so that
// external renderers (stage lights, secondary displays) can follow a room.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/reconciler"
)

// NATSConfig holds configuration for the relay connection
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default relay configuration. The URL is left
// empty, which disables the relay.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		SubjectPrefix: "partyroom",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Conn is the part of a NATS connection the relay publishes through.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Message is the published body.
type Message struct {
	Room   string            `json:"room"`
	Kind   string            `json:"kind"`
	At     time.Time         `json:"at"`
	Effect reconciler.Effect `json:"effect"`
}

// NATSPublisher publishes effects on <prefix>.<room>.<kind>. A publisher
// without a connection drops everything silently.
type NATSPublisher struct {
	conn   Conn
	nc     *nats.Conn
	prefix string
	room   string
}

// Connect dials NATS. An empty URL yields a disabled publisher.
func Connect(cfg NATSConfig, room string) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return &NATSPublisher{prefix: cfg.SubjectPrefix, room: room}, nil
	}

	opts := []nats.Option{
		nats.Name("partyroom-" + room),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("relay disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("relay reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("relay error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Str("prefix", cfg.SubjectPrefix).Msg("relay connected")

	p := NewNATSPublisher(nc, cfg.SubjectPrefix, room)
	p.nc = nc
	return p, nil
}

// NewNATSPublisher publishes through an existing connection.
func NewNATSPublisher(conn Conn, prefix, room string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, room: room}
}

// Enabled reports whether effects actually leave the process.
func (p *NATSPublisher) Enabled() bool { return p.conn != nil }

// Publish sends one effect. Failures are logged and never returned: the
// relay must not disturb the session.
func (p *NATSPublisher) Publish(fx reconciler.Effect, at time.Time) {
	if p.conn == nil {
		return
	}
	subject := Subject(p.prefix, p.room, fx.Kind())
	data, err := json.Marshal(Message{Room: p.room, Kind: fx.Kind(), At: at, Effect: fx})
	if err != nil {
		log.Error().Err(err).Str("kind", fx.Kind()).Msg("failed to marshal effect")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to relay effect")
	}
}

// Close drains the connection if one was dialed.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("relay drain failed")
		p.nc.Close()
	}
}

// Subject builds the subject for one effect kind. Room ids are user input,
// so NATS token separators and wildcards in them are replaced.
func Subject(prefix, room, kind string) string {
	return prefix + "." + subjectToken(room) + "." + kind
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}
