package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	reviewmodels "reviewhub/internal/review/models"
)

// SyncDispatcher recomputes inside the publishing call. The review write is
// already durable, so the aggregator always sees it.
type SyncDispatcher struct {
	aggregator *Aggregator
}

func NewSyncDispatcher(aggregator *Aggregator) *SyncDispatcher {
	return &SyncDispatcher{aggregator: aggregator}
}

func (d *SyncDispatcher) PublishReviewCreated(ctx context.Context, event reviewmodels.ReviewCreated) error {
	_, err := d.aggregator.Recompute(ctx, event.ListingID)
	return err
}

// Producer sends a keyed record to the event log.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaPublisher writes ReviewCreated keyed by listing id so a listing's
// events stay on one partition.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) PublishReviewCreated(ctx context.Context, event reviewmodels.ReviewCreated) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode review created: %w", err)
	}
	return p.producer.Produce(ctx, []byte(event.ListingID.String()), value)
}

// Consumer turns ReviewCreated records back into recomputes.
type Consumer struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewConsumer(aggregator *Aggregator, logger *slog.Logger) *Consumer {
	return &Consumer{aggregator: aggregator, logger: logger}
}

// Handle matches kafka.Handler. Undecodable records are logged and dropped
// so one bad message cannot stall the partition.
func (c *Consumer) Handle(ctx context.Context, _, value []byte) error {
	var event reviewmodels.ReviewCreated
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable review event", "error", err)
		return nil
	}
	if event.ListingID.IsNil() {
		c.logger.WarnContext(ctx, "dropping review event without listing id")
		return nil
	}
	_, err := c.aggregator.Recompute(ctx, event.ListingID)
	return err
}
