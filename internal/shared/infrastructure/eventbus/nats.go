package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATS header names set on published messages.
const (
	HeaderCorrelationID = "Correlation-Id"
	HeaderAggregateType = "Aggregate-Type"
)

// NATSConfig configures the JetStream publisher and consumer.
type NATSConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Logger        *slog.Logger
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Stream == "" {
		c.Stream = "VENUES"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "venues.events."
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func connectJetStream(cfg NATSConfig, name string) (*nats.Conn, nats.JetStreamContext, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name(name))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}
	if err := ensureStream(js, cfg); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, js, nil
}

func ensureStream(js nats.JetStreamContext, cfg NATSConfig) error {
	_, err := js.StreamInfo(cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", cfg.Stream, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.SubjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
	}
	return nil
}

// NATSPublisher publishes envelopes to a JetStream stream.
// The event id is used as the JetStream message id, so redelivered outbox
// rows are de-duplicated by the server.
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	cfg    NATSConfig
	logger *slog.Logger
}

// NewNATSPublisher connects to NATS and ensures the stream exists.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	cfg = cfg.withDefaults()
	conn, js, err := connectJetStream(cfg, "venues-publisher")
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("NATS publisher connected", "stream", cfg.Stream, "subjects", cfg.SubjectPrefix+">")

	return &NATSPublisher{conn: conn, js: js, cfg: cfg, logger: cfg.Logger}, nil
}

// Subject returns the NATS subject for a routing key.
func (p *NATSPublisher) Subject(routingKey string) string {
	return p.cfg.SubjectPrefix + routingKey
}

// Publish sends the envelope and waits for the JetStream acknowledgement.
func (p *NATSPublisher) Publish(ctx context.Context, envelope Envelope) error {
	body, err := envelope.Encode()
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.Subject(envelope.RoutingKey))
	msg.Data = body
	msg.Header.Set(HeaderAggregateType, envelope.AggregateType)
	if envelope.CorrelationID != "" {
		msg.Header.Set(HeaderCorrelationID, envelope.CorrelationID)
	}

	ack, err := p.js.PublishMsg(msg, nats.MsgId(envelope.EventID.String()), nats.Context(ctx))
	if err != nil {
		p.logger.Error("failed to publish message",
			"subject", msg.Subject,
			"event_id", envelope.EventID,
			"error", err,
		)
		return err
	}

	p.logger.Debug("message published",
		"subject", msg.Subject,
		"event_id", envelope.EventID,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// NATSConsumer reads envelopes from the stream with an ephemeral consumer
// starting at new messages.
type NATSConsumer struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	cfg      NATSConfig
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSConsumer connects to NATS and ensures the stream exists.
func NewNATSConsumer(cfg NATSConfig, registry *ConsumerRegistry) (*NATSConsumer, error) {
	cfg = cfg.withDefaults()
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}
	conn, js, err := connectJetStream(cfg, "venues-consumer")
	if err != nil {
		return nil, err
	}
	return &NATSConsumer{conn: conn, js: js, cfg: cfg, registry: registry, logger: cfg.Logger}, nil
}

// RegisterConsumer registers an event consumer.
func (c *NATSConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
}

// Start subscribes to the whole stream and blocks until ctx is done.
func (c *NATSConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	sub, err := c.js.Subscribe(c.cfg.SubjectPrefix+">", c.handle(ctx), nats.DeliverNew(), nats.ManualAck())
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.sub = sub
	c.mu.Unlock()

	c.logger.Info("started consuming events", "stream", c.cfg.Stream)
	<-ctx.Done()
	return ctx.Err()
}

func (c *NATSConsumer) handle(ctx context.Context) nats.MsgHandler {
	return func(msg *nats.Msg) {
		d := Delivery{
			Body:       msg.Data,
			RoutingKey: strings.TrimPrefix(msg.Subject, c.cfg.SubjectPrefix),
			MessageID:  msg.Header.Get(nats.MsgIdHdr),
		}
		if meta, err := msg.Metadata(); err == nil {
			d.Redelivered = meta.NumDelivered > 1
		}

		var err error
		switch outcome := c.registry.Settle(ctx, d); outcome {
		case SettleAck:
			err = msg.Ack()
		case SettleRequeue:
			err = msg.Nak()
		default:
			err = msg.Term()
		}
		if err != nil {
			c.logger.Warn("nats settle failed", "subject", msg.Subject, "error", err)
		}
	}
}

// Close unsubscribes and closes the connection.
func (c *NATSConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
		c.sub = nil
	}
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
