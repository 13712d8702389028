//go:build integration

package kafka

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reviewhub/internal/platform/config"
	"reviewhub/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	cfg config.KafkaConfig
}

func TestKafkaSuite(t *testing.T) {
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	broker := containers.NewRedpandaContainer(s.T())
	s.cfg = config.KafkaConfig{
		Brokers: []string{broker.SeedBroker},
		Topic:   "review-events-test",
		Group:   "reviewhub-rating-test",
	}
}

func (s *KafkaSuite) TestEnsureTopicIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(EnsureTopic(ctx, s.cfg, 3, 1))
	s.Require().NoError(EnsureTopic(ctx, s.cfg, 3, 1))
}

func (s *KafkaSuite) TestProduceConsumeRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(EnsureTopic(ctx, s.cfg, 1, 1))

	producer, err := NewProducer(s.cfg)
	s.Require().NoError(err)
	defer producer.Close()

	var (
		mu   sync.Mutex
		seen []string
		done = make(chan struct{})
	)
	consumer, err := NewConsumer(s.cfg, func(_ context.Context, key, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(value))
		if len(seen) == 2 {
			close(done)
		}
		return nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	defer consumer.Close()
	go func() { _ = consumer.Run(ctx) }()

	s.Require().NoError(producer.Produce(ctx, []byte("listing-1"), []byte("first")))
	s.Require().NoError(producer.Produce(ctx, []byte("listing-1"), []byte("second")))

	select {
	case <-done:
	case <-ctx.Done():
		s.FailNow("timed out waiting for records")
	}
	mu.Lock()
	defer mu.Unlock()
	s.Equal([]string{"first", "second"}, seen)
}
