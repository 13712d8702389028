//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reviewhub/internal/identity/models"
	"reviewhub/internal/identity/store"
	"reviewhub/internal/platform/postgres"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "reviews", "listings", "users"))
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.NewUserID(),
		Username:     "mario",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresUserStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	user := newTestUser("mario@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	byID, err := s.store.FindByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)
	s.True(user.CreatedAt.Equal(byID.CreatedAt))

	byEmail, err := s.store.FindByEmail(ctx, "MARIO@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	_, err = s.store.FindByID(ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestFindByIDs() {
	ctx := context.Background()
	a := newTestUser("a@example.com")
	b := newTestUser("b@example.com")
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	found, err := s.store.FindByIDs(ctx, []id.UserID{a.ID, b.ID, id.NewUserID()})
	s.Require().NoError(err)
	s.Len(found, 2)
}

// TestConcurrentDuplicateEmail verifies exactly one registration wins.
func (s *PostgresUserStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestUser("race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case err == sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
