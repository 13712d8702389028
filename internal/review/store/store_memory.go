package store

import (
	"context"
	"sort"
	"sync"

	"reviewhub/internal/review/models"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
)

// InMemoryReviewStore keeps reviews per listing in insertion order.
type InMemoryReviewStore struct {
	mu        sync.RWMutex
	byListing map[id.ListingID][]*models.Review
	ids       map[id.ReviewID]struct{}
}

func NewInMemory() *InMemoryReviewStore {
	return &InMemoryReviewStore{
		byListing: make(map[id.ListingID][]*models.Review),
		ids:       make(map[id.ReviewID]struct{}),
	}
}

func (s *InMemoryReviewStore) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.ids[r.ID] = struct{}{}
	s.byListing[r.ListingID] = append(s.byListing[r.ListingID], r.Clone())
	return nil
}

// ListByListing returns reviews oldest first. Equal timestamps keep
// insertion order.
func (s *InMemoryReviewStore) ListByListing(_ context.Context, listingID id.ListingID) ([]*models.Review, error) {
	s.mu.RLock()
	stored := s.byListing[listingID]
	out := make([]*models.Review, 0, len(stored))
	for _, r := range stored {
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
