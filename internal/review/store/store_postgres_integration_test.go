//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	listingmodels "reviewhub/internal/listing/models"
	listingstore "reviewhub/internal/listing/store"
	"reviewhub/internal/platform/postgres"
	"reviewhub/internal/review/models"
	"reviewhub/internal/review/store"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/testutil/containers"
)

type PostgresReviewStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	listings *listingstore.PostgresListingStore
	store    *store.PostgresReviewStore
}

func TestPostgresReviewStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresReviewStoreSuite))
}

func (s *PostgresReviewStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.listings = listingstore.NewPostgres(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresReviewStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "reviews", "listings"))
}

func (s *PostgresReviewStoreSuite) listing() id.ListingID {
	l := (&listingmodels.CreateListingRequest{Name: "Mama's Pizza", Address: "1 Main St"}).
		ToListing(id.NewUserID(), time.Now().UTC())
	s.Require().NoError(s.listings.Create(context.Background(), l))
	return l.ID
}

func (s *PostgresReviewStoreSuite) TestCreateAndListAscending() {
	ctx := context.Background()
	listingID := s.listing()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, rating := range []int{5, 4, 3} {
		r := (&models.CreateReviewRequest{Rating: rating, Comment: "c"}).
			ToReview(id.NewUserID(), listingID, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Create(ctx, r))
	}
	tie := (&models.CreateReviewRequest{Rating: 1}).ToReview(id.NewUserID(), listingID, base)
	s.Require().NoError(s.store.Create(ctx, tie))

	got, err := s.store.ListByListing(ctx, listingID)
	s.Require().NoError(err)
	s.Require().Len(got, 4)
	s.Equal([]int{5, 1, 4, 3}, []int{got[0].Rating, got[1].Rating, got[2].Rating, got[3].Rating})
	s.Equal(listingID, got[0].ListingID)
}

func (s *PostgresReviewStoreSuite) TestMissingListingIsNotFound() {
	r := (&models.CreateReviewRequest{Rating: 3}).ToReview(id.NewUserID(), id.NewListingID(), time.Now().UTC())
	s.ErrorIs(s.store.Create(context.Background(), r), sentinel.ErrNotFound)
}

func (s *PostgresReviewStoreSuite) TestEmptyListing() {
	got, err := s.store.ListByListing(context.Background(), s.listing())
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}
