package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/models"
)

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	SubjectPrefix string        // subjects become <prefix>.violation etc.
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "antispam-bot",
		SubjectPrefix: "antispam",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSPublisher sends events as JSON to NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(config NATSConfig, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &NATSPublisher{conn: nc, prefix: config.SubjectPrefix}, nil
}

func (p *NATSPublisher) PublishViolation(ctx context.Context, esc models.Escalation) error {
	return p.publish(ctx, SubjectViolation, esc)
}

func (p *NATSPublisher) PublishBan(ctx context.Context, ev BanEvent) error {
	return p.publish(ctx, SubjectBan, ev)
}

func (p *NATSPublisher) PublishReport(ctx context.Context, ev ReportEvent) error {
	return p.publish(ctx, SubjectReport, ev)
}

func (p *NATSPublisher) publish(ctx context.Context, suffix string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", suffix, err)
	}
	subject := Subject(p.prefix, suffix)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}

// Subject joins prefix and suffix; an empty prefix yields the bare suffix.
func Subject(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + "." + suffix
}
