package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig tunes the publish loop.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the settings used when none are configured.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// Stats is a snapshot of processor counters.
type Stats struct {
	Running        bool
	Published      uint64
	Failed         uint64
	DeadLettered   uint64
	LastError      string
	LastErrorAt    *time.Time
	LastBatchAt    *time.Time
	LastBatchSize  int
	OldestBacklogS float64
}

// Processor publishes stored messages and records the outcome of each attempt.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	clock     domain.Clock
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a processor. A nil clock means the system clock.
func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, clock domain.Clock, logger *zap.Logger) *Processor {
	def := DefaultProcessorConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = def.RetryBackoffBase
	}
	if cfg.RetryBackoffMax <= 0 {
		cfg.RetryBackoffMax = def.RetryBackoffMax
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{repo: repo, publisher: publisher, config: cfg, clock: clock, logger: logger}
}

// Start launches the poll loop. Calling Start twice is a no-op.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.wg.Add(1)
	go p.loop(ctx, p.stop)

	p.logger.Info("outbox processor started",
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Int("batch_size", p.config.BatchSize),
	)
}

// Stop ends the loop and waits for the current batch.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

func (p *Processor) loop(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce publishes one batch and returns how many messages went out.
func (p *Processor) ProcessOnce(ctx context.Context) (int, error) {
	now := p.clock.Now()
	msgs, err := p.repo.GetUnpublished(ctx, now, p.config.BatchSize)
	if err != nil {
		p.recordError(err, now)
		return 0, err
	}
	p.recordBatch(msgs, now)

	published := 0
	for _, msg := range msgs {
		if err := p.publish(ctx, msg); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, msg.ID, p.clock.Now()); err != nil {
			p.logger.Error("mark outbox message published",
				zap.Int64("id", msg.ID), zap.Stringer("event_id", msg.EventID), zap.Error(err))
			continue
		}
		published++
		p.statsMu.Lock()
		p.stats.Published++
		p.statsMu.Unlock()
	}
	return published, nil
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	body, err := msg.Envelope()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg.RoutingKey, body)
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, cause error) {
	now := p.clock.Now()
	p.logger.Warn("outbox publish failed",
		zap.Int64("id", msg.ID),
		zap.String("routing_key", msg.RoutingKey),
		zap.Stringer("event_id", msg.EventID),
		zap.Int("retry_count", msg.RetryCount),
		zap.Error(cause),
	)

	if msg.RetryCount+1 >= p.config.MaxRetries {
		p.statsMu.Lock()
		p.stats.DeadLettered++
		p.statsMu.Unlock()
		p.recordError(cause, now)
		if err := p.repo.MarkDead(ctx, msg.ID, cause.Error(), now); err != nil {
			p.logger.Error("dead-letter outbox message", zap.Int64("id", msg.ID), zap.Error(err))
		}
		return
	}

	p.statsMu.Lock()
	p.stats.Failed++
	p.statsMu.Unlock()
	p.recordError(cause, now)
	next := now.Add(p.Backoff(msg.RetryCount + 1))
	if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error(), next); err != nil {
		p.logger.Error("mark outbox message failed", zap.Int64("id", msg.ID), zap.Error(err))
	}
}

// Backoff returns the delay before retry number attempt (1-based):
// base doubled per attempt, capped at RetryBackoffMax.
func (p *Processor) Backoff(attempt int) time.Duration {
	d := p.config.RetryBackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.config.RetryBackoffMax {
			return p.config.RetryBackoffMax
		}
	}
	if d > p.config.RetryBackoffMax {
		return p.config.RetryBackoffMax
	}
	return d
}

// Cleanup deletes messages published longer than retention ago.
func (p *Processor) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := p.repo.DeleteOld(ctx, p.clock.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("purged published outbox messages", zap.Int64("deleted", n))
	}
	return n, nil
}

// Stats returns a snapshot of the counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.Running = running
	return s
}

func (p *Processor) recordError(err error, at time.Time) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &at
}

func (p *Processor) recordBatch(msgs []*Message, at time.Time) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastBatchAt = &at
	p.stats.LastBatchSize = len(msgs)
	p.stats.OldestBacklogS = 0
	if len(msgs) > 0 {
		p.stats.OldestBacklogS = at.Sub(msgs[0].CreatedAt).Seconds()
	}
}
