package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/queuedesk/libs/db"
	"github.com/md-rashed-zaman/queuedesk/libs/kafkax"
	otelx "github.com/md-rashed-zaman/queuedesk/libs/otel"
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   []string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
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
		brokers:   cfg.Brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// PublishBatch sends one batch of unpublished events and marks them
// published in the same transaction that locked them.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	var sent int
	err := p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, Message(ctx, r))
			ids = append(ids, r.ID)
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		sent = len(records)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	return sent, err
}

// Message builds the Kafka message for an outbox record, resuming the trace
// that produced it.
func Message(ctx context.Context, r Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
	headers := kafkax.MetaHeaders(kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType})
	return kafka.Message{
		Topic:   r.EventType,
		Key:     []byte(r.AggregateID),
		Value:   r.Payload,
		Headers: kafkax.InjectTraceHeaders(msgCtx, headers),
	}
}
