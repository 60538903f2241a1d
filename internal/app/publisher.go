package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// NewEventPublisher builds the publisher selected by EVENT_BROKER. Remote
// brokers are wrapped in a circuit breaker. The in-process bus is returned
// as is so callers can register consumers on it.
func NewEventPublisher(cfg *config.Config, logger *slog.Logger) (eventbus.Publisher, error) {
	breakerCfg := eventbus.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerOpenTimeout > 0 {
		breakerCfg.OpenTimeout = cfg.BreakerOpenTimeout
	}

	switch cfg.EventBroker {
	case config.BrokerNone, "":
		return eventbus.NewNoopPublisher(logger), nil

	case config.BrokerInProcess:
		return eventbus.NewInProcessBus(logger), nil

	case config.BrokerRabbitMQ:
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		return eventbus.NewBreakerPublisher("rabbitmq", publisher, breakerCfg, logger), nil

	case config.BrokerNATS:
		publisher, err := eventbus.NewNATSPublisher(natsConfig(cfg, logger))
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		return eventbus.NewBreakerPublisher("nats", publisher, breakerCfg, logger), nil

	default:
		return nil, fmt.Errorf("unsupported event broker: %q", cfg.EventBroker)
	}
}

// NewEventConsumer builds a broker consumer for EVENT_BROKER. The in-process
// and noop brokers have nothing to consume from.
func NewEventConsumer(cfg *config.Config, queueName string, logger *slog.Logger) (eventbus.Consumer, *eventbus.ConsumerRegistry, error) {
	registry := eventbus.NewConsumerRegistry(logger)

	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: queueName,
			Exchange:  eventbus.ExchangeName,
			Logger:    logger,
		}, registry)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		return consumer, registry, nil

	case config.BrokerNATS:
		consumer, err := eventbus.NewNATSConsumer(natsConfig(cfg, logger), registry)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS: %w", err)
		}
		return consumer, registry, nil

	default:
		return nil, nil, fmt.Errorf("event broker %q has no consumer", cfg.EventBroker)
	}
}

func natsConfig(cfg *config.Config, logger *slog.Logger) eventbus.NATSConfig {
	return eventbus.NATSConfig{
		URL:           cfg.NATSURL,
		Stream:        cfg.NATSStream,
		SubjectPrefix: cfg.NATSSubjects,
		Logger:        logger,
	}
}

// BrokerCheck reports an open circuit as a broker failure.
func BrokerCheck(publisher eventbus.Publisher) func(ctx context.Context) error {
	return func(context.Context) error {
		bp, ok := publisher.(*eventbus.BreakerPublisher)
		if !ok {
			return nil
		}
		if bp.State() == gobreaker.StateOpen {
			return eventbus.ErrBrokerUnavailable
		}
		return nil
	}
}
