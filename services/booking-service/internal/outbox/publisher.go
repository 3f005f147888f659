package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	pool      db.Querier
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int

	newWriter func(brokers []string) MessageWriter
	onBatch   func(published int)
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// OnBatch, when set, receives the number of events written per successful batch.
	OnBatch func(published int)
}

func NewPublisher(pool db.Querier, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		newWriter: func(brokers []string) MessageWriter { return kafkax.NewWriter(brokers) },
		onBatch:   cfg.OnBatch,
	}
}

func (p *Publisher) Enabled() bool {
	return len(p.brokers) > 0
}

// Run polls the outbox until ctx is cancelled. It returns immediately when no brokers are configured.
func (p *Publisher) Run(ctx context.Context) {
	if !p.Enabled() {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := p.newWriter(p.brokers)
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// PublishBatch writes one batch of unpublished events and marks them published in the same tx.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		msgCtx := r.Trace.Restore(ctx)
		msg := kafka.Message{
			Topic:   r.EventType,
			Key:     []byte(r.AggregateID),
			Value:   r.Payload,
			Headers: kafkax.EventHeaders(kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType}),
		}
		msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
		msgs = append(msgs, msg)
		ids = append(ids, r.ID)
	}
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	if p.onBatch != nil {
		p.onBatch(len(records))
	}
	p.logger.Debug("outbox batch published", "count", len(records))
	return len(records), nil
}
