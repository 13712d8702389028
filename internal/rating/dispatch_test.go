package rating

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingmodels "reviewhub/internal/listing/models"
	listingservice "reviewhub/internal/listing/service"
	listingstore "reviewhub/internal/listing/store"
	reviewmodels "reviewhub/internal/review/models"
	reviewservice "reviewhub/internal/review/service"
	reviewstore "reviewhub/internal/review/store"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/testutil"
)

type fixture struct {
	listings   *listingservice.Service
	reviews    *reviewstore.InMemoryReviewStore
	aggregator *Aggregator
	logger     *slog.Logger
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	listings := listingservice.New(listingstore.NewInMemory(), listingservice.WithLogger(logger))
	reviews := reviewstore.NewInMemory()
	return &fixture{
		listings:   listings,
		reviews:    reviews,
		aggregator: NewAggregator(reviews, listings, WithLogger(logger)),
		logger:     logger,
	}
}

func TestSyncDispatcherScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	reviews := reviewservice.New(f.reviews, f.listings,
		reviewservice.WithPublisher(NewSyncDispatcher(f.aggregator)),
		reviewservice.WithLogger(f.logger),
	)

	testutil.Given(t, "a pizza place reviewed 5, 4 and 3", func(t *testing.T) {
		pizza, err := f.listings.Create(ctx, id.NewUserID(), &listingmodels.CreateListingRequest{
			Name: "Mama's Pizza", Address: "1 Main St", Cuisine: "Italian",
		})
		require.NoError(t, err)
		for _, r := range []int{5, 4, 3} {
			_, err := reviews.Create(ctx, id.NewUserID(), pizza.ID, &reviewmodels.CreateReviewRequest{Rating: r})
			require.NoError(t, err)
		}

		testutil.Then(t, "the listing carries the mean and count", func(t *testing.T) {
			got, err := f.listings.Get(ctx, pizza.ID)
			require.NoError(t, err)
			assert.Equal(t, 4.0, got.AggregateRating)
			assert.Equal(t, 3, got.ReviewCount)
		})

		testutil.When(t, "searching for pizza", func(t *testing.T) {
			found, err := f.listings.Search(ctx, "pizza")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, pizza.ID, found[0].ID)
			assert.Equal(t, 4.0, found[0].AggregateRating)
		})

		testutil.When(t, "searching for mexican", func(t *testing.T) {
			none, err := f.listings.Search(ctx, "mexican")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	})
}

func TestConcurrentReviewsConverge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	reviews := reviewservice.New(f.reviews, f.listings,
		reviewservice.WithPublisher(NewSyncDispatcher(f.aggregator)),
		reviewservice.WithLogger(f.logger),
	)
	l, err := f.listings.Create(ctx, id.NewUserID(), &listingmodels.CreateListingRequest{Name: "Busy", Address: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := reviews.Create(ctx, id.NewUserID(), l.ID, &reviewmodels.CreateReviewRequest{Rating: rating})
			assert.NoError(t, err)
		}(i%5 + 1)
	}
	wg.Wait()

	// One more recompute after all writes are durable settles any interleaving.
	got, err := f.aggregator.Recompute(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

type recordingProducer struct {
	key, value []byte
	err        error
}

func (p *recordingProducer) Produce(_ context.Context, key, value []byte) error {
	p.key, p.value = key, value
	return p.err
}

func TestKafkaPublisherKeysByListing(t *testing.T) {
	producer := &recordingProducer{}
	event := reviewmodels.ReviewCreated{
		ReviewID:  id.NewReviewID(),
		ListingID: id.NewListingID(),
		AuthorID:  id.NewUserID(),
		Rating:    4,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, NewKafkaPublisher(producer).PublishReviewCreated(context.Background(), event))

	assert.Equal(t, event.ListingID.String(), string(producer.key))
	var decoded reviewmodels.ReviewCreated
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestKafkaPublisherReturnsProducerError(t *testing.T) {
	boom := errors.New("broker down")
	err := NewKafkaPublisher(&recordingProducer{err: boom}).
		PublishReviewCreated(context.Background(), reviewmodels.ReviewCreated{ListingID: id.NewListingID()})
	assert.ErrorIs(t, err, boom)
}

func TestConsumerHandle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	consumer := NewConsumer(f.aggregator, f.logger)

	l, err := f.listings.Create(ctx, id.NewUserID(), &listingmodels.CreateListingRequest{Name: "Queue", Address: "x"})
	require.NoError(t, err)
	for _, r := range []int{2, 3} {
		review := (&reviewmodels.CreateReviewRequest{Rating: r}).ToReview(id.NewUserID(), l.ID, time.Now())
		require.NoError(t, f.reviews.Create(ctx, review))
	}

	t.Run("recomputes the event's listing", func(t *testing.T) {
		value, err := json.Marshal(reviewmodels.ReviewCreated{ListingID: l.ID, Rating: 3})
		require.NoError(t, err)
		require.NoError(t, consumer.Handle(ctx, []byte(l.ID.String()), value))

		got, err := f.listings.Get(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.5, got.AggregateRating)
	})

	t.Run("undecodable record is dropped", func(t *testing.T) {
		assert.NoError(t, consumer.Handle(ctx, nil, []byte("{not json")))
	})

	t.Run("record without listing is dropped", func(t *testing.T) {
		assert.NoError(t, consumer.Handle(ctx, nil, []byte(`{"rating":5}`)))
	})
}
