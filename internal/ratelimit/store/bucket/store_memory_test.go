package bucket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *InMemoryBucketStore
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryBucketStoreSuite) TestAllowsUpToLimit() {
	for i := 0; i < 3; i++ {
		res, err := s.store.Allow(s.ctx, "ip:1", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(s.ctx, "ip:1", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(60, res.RetryAfter)
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	s.store.Allow(s.ctx, "ip:1", 2, time.Minute)
	s.now = s.now.Add(30 * time.Second)
	s.store.Allow(s.ctx, "ip:1", 2, time.Minute)

	res, _ := s.store.Allow(s.ctx, "ip:1", 2, time.Minute)
	s.False(res.Allowed)
	s.Equal(30, res.RetryAfter, "oldest entry leaves the window in 30s")

	s.now = s.now.Add(30 * time.Second)
	res, _ = s.store.Allow(s.ctx, "ip:1", 2, time.Minute)
	s.True(res.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestDeniedRequestsAreNotRecorded() {
	s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	for i := 0; i < 5; i++ {
		s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	}
	s.now = s.now.Add(time.Minute)
	res, _ := s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	s.True(res.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestKeysAreIndependent() {
	s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	res, _ := s.store.Allow(s.ctx, "ip:2", 1, time.Minute)
	s.True(res.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	s.Require().NoError(s.store.Reset(s.ctx, "ip:1"))
	res, _ := s.store.Allow(s.ctx, "ip:1", 1, time.Minute)
	s.True(res.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestIdleWindowsAreSwept() {
	for i := 0; i < sweepEvery-1; i++ {
		s.store.Allow(s.ctx, fmt.Sprintf("ip:%d", i), 1, time.Minute)
	}
	s.Equal(sweepEvery-1, s.store.Len())

	s.now = s.now.Add(2 * time.Minute)
	s.store.Allow(s.ctx, "ip:new", 1, time.Minute)
	s.Equal(1, s.store.Len())
}

func (s *InMemoryBucketStoreSuite) TestConcurrentCallersNeverExceedLimit() {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(s.ctx, "ip:1", 10, time.Minute)
			s.NoError(err)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(10, allowed)
}
