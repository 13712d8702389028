package main

import (
	"context"
	"log/slog"

	"reviewhub/internal/platform/config"
	"reviewhub/internal/platform/kafka"
	"reviewhub/internal/rating"
	reviewservice "reviewhub/internal/review/service"
)

const (
	reviewTopicPartitions  = 3
	reviewTopicReplication = 1
)

// events is the ReviewCreated dispatch path. Without brokers the aggregator
// runs in-process on publish.
type events struct {
	publisher reviewservice.Publisher
	producer  *kafka.Producer
	consumer  *kafka.Consumer
}

func newEvents(ctx context.Context, cfg config.KafkaConfig, aggregator *rating.Aggregator, log *slog.Logger) (*events, error) {
	if !cfg.Enabled() {
		log.Info("rating recompute runs in-process")
		return &events{publisher: rating.NewSyncDispatcher(aggregator)}, nil
	}

	if err := kafka.EnsureTopic(ctx, cfg, reviewTopicPartitions, reviewTopicReplication); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	consumer, err := kafka.NewConsumer(cfg, rating.NewConsumer(aggregator, log).Handle, log)
	if err != nil {
		producer.Close()
		return nil, err
	}
	log.Info("rating recompute runs from kafka", "topic", cfg.Topic, "group", cfg.Group)
	return &events{
		publisher: rating.NewKafkaPublisher(producer),
		producer:  producer,
		consumer:  consumer,
	}, nil
}

func (e *events) Close() {
	if e.consumer != nil {
		e.consumer.Close()
	}
	if e.producer != nil {
		e.producer.Close()
	}
}
