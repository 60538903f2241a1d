package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/pkg/clock"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the number of attempts before a message is dead-lettered.
	// Zero or less dead-letters on the first failure.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the relay settings used when none are configured.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// withDefaults replaces non-positive durations and sizes with the defaults.
func (c ProcessorConfig) withDefaults() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = d.RetryBackoffBase
	}
	if c.RetryBackoffMax <= 0 {
		c.RetryBackoffMax = d.RetryBackoffMax
	}
	if c.RetryBackoffMax < c.RetryBackoffBase {
		c.RetryBackoffMax = c.RetryBackoffBase
	}
	return c
}

// BatchReport counts what one relay pass did with the messages it loaded.
type BatchReport struct {
	Published int
	Retrying  int
	Dead      int
	// Held counts messages skipped because an earlier message of the same
	// aggregate failed in the same pass.
	Held int
}

// Total returns the number of messages the pass loaded.
func (r BatchReport) Total() int {
	return r.Published + r.Retrying + r.Dead + r.Held
}

// Processor relays stored events to the broker. Delivery is at least once:
// a message is marked published only after the broker accepted it. Events of
// one aggregate are relayed in the order they were stored.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a relay. Non-positive intervals and sizes in config
// fall back to DefaultProcessorConfig.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config.withDefaults(),
		logger:    logger.With("component", "outbox"),
	}
}

// Config returns the effective settings.
func (p *Processor) Config() ProcessorConfig {
	return p.config
}

// Start runs the relay loop in a goroutine until Stop or ctx is done.
// Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})

	p.done.Add(1)
	go p.loop(ctx, p.stop)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries,
	)
	return nil
}

// Stop ends the relay loop and waits for the current pass to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.done.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the relay loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) loop(ctx context.Context, stop <-chan struct{}) {
	defer p.done.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := p.Relay(ctx); err != nil {
				p.logger.Error("outbox relay pass failed", "error", err)
			}
		}
	}
}

// ProcessOnce runs a single relay pass.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	_, err := p.Relay(ctx)
	return err
}

// aggregateKey identifies the event stream of one aggregate.
type aggregateKey struct {
	aggregateType string
	aggregateID   uuid.UUID
}

// Relay publishes one batch of due messages. Once a message of an aggregate
// fails, later messages of that aggregate stay queued until the next pass.
// Only a failure to load the batch is returned; publish failures are
// recorded on the messages.
func (p *Processor) Relay(ctx context.Context) (BatchReport, error) {
	var report BatchReport

	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.recordError(ctx, err)
		return report, err
	}
	p.recordLoaded(ctx, messages)

	blocked := make(map[aggregateKey]bool)
	for _, msg := range messages {
		key := aggregateKey{msg.AggregateType, msg.AggregateID}
		if blocked[key] {
			report.Held++
			continue
		}

		if err := p.publisher.Publish(ctx, msg.Envelope()); err != nil {
			blocked[key] = true
			if p.settleFailure(ctx, msg, err) {
				report.Dead++
			} else {
				report.Retrying++
			}
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			// the broker has the event; it will be sent again next pass
			blocked[key] = true
			report.Retrying++
			p.messageLogger(msg).Error("failed to mark message published", "error", err)
			continue
		}
		report.Published++
		p.recordPublished()
	}

	if report.Total() > 0 {
		p.logger.Debug("outbox batch relayed",
			"published", report.Published,
			"retrying", report.Retrying,
			"dead", report.Dead,
			"held", report.Held,
		)
	}
	return report, nil
}

// settleFailure schedules a retry or dead-letters msg, reporting whether it
// was dead-lettered.
func (p *Processor) settleFailure(ctx context.Context, msg *Message, cause error) bool {
	attempt := msg.RetryCount + 1
	logger := p.messageLogger(msg).With("attempt", attempt, "error", cause)

	if p.config.MaxRetries <= 0 || attempt >= p.config.MaxRetries {
		p.recordFailure(ctx, cause, true)
		logger.Error("outbox message dead-lettered")
		if err := p.repo.MarkDead(ctx, msg.ID, cause.Error()); err != nil {
			logger.Error("failed to mark message dead", "mark_error", err)
		}
		return true
	}

	p.recordFailure(ctx, cause, false)
	next := clock.Now(ctx).Add(p.backoff(attempt))
	logger.Warn("outbox message publish failed", "next_retry_at", next)
	if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error(), next); err != nil {
		logger.Error("failed to schedule message retry", "mark_error", err)
	}
	return false
}

// backoff returns the wait before the given attempt number is retried:
// base doubled per earlier attempt, capped at the configured maximum.
func (p *Processor) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := convert.IntToUintClamped(attempt - 1)
	if shift >= 62 || p.config.RetryBackoffBase > p.config.RetryBackoffMax>>shift {
		return p.config.RetryBackoffMax
	}
	return p.config.RetryBackoffBase << shift
}

func (p *Processor) messageLogger(msg *Message) *slog.Logger {
	logger := p.logger.With(
		"outbox_id", msg.ID,
		"event_id", msg.EventID,
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
	)
	if meta := msg.EventMetadata(); meta.CorrelationID != uuid.Nil {
		logger = logger.With("correlation_id", meta.CorrelationID)
	}
	return logger
}

// Stats is a snapshot of relay activity since the processor was created.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns a snapshot of relay activity.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	stats := p.stats
	p.statsMu.Unlock()

	stats.IsRunning = p.IsRunning()
	return stats
}

func (p *Processor) recordPublished() {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.PublishedCount++
}

func (p *Processor) recordFailure(ctx context.Context, err error, dead bool) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	if dead {
		p.stats.DeadCount++
	} else {
		p.stats.FailedCount++
	}
	p.setLastError(ctx, err)
}

func (p *Processor) recordError(ctx context.Context, err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.setLastError(ctx, err)
}

// setLastError must be called with statsMu held.
func (p *Processor) setLastError(ctx context.Context, err error) {
	now := clock.Now(ctx)
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

// recordLoaded tracks how far behind the relay is: the age of the oldest
// message in the pass, or zero for an empty pass.
func (p *Processor) recordLoaded(ctx context.Context, messages []*Message) {
	now := clock.Now(ctx)

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastProcessedAt = &now
	p.stats.OldestMessageAt = nil
	p.stats.LagSeconds = 0

	for _, msg := range messages {
		if p.stats.OldestMessageAt == nil || msg.CreatedAt.Before(*p.stats.OldestMessageAt) {
			oldest := msg.CreatedAt
			p.stats.OldestMessageAt = &oldest
		}
	}
	if p.stats.OldestMessageAt != nil {
		p.stats.LagSeconds = now.Sub(*p.stats.OldestMessageAt).Seconds()
	}
}
