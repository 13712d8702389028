package store

import (
	"context"
	"sync"

	"reviewhub/internal/listing/models"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
)

// InMemoryListingStore keeps listings in insertion order. The lock guards
// only slice and map access; callbacks passed to Update run on a copy.
type InMemoryListingStore struct {
	mu      sync.RWMutex
	ordered []*models.Listing
	index   map[id.ListingID]int
}

func NewInMemory() *InMemoryListingStore {
	return &InMemoryListingStore{index: make(map[id.ListingID]int)}
}

func (s *InMemoryListingStore) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[listing.ID]; exists {
		return sentinel.ErrConflict
	}
	s.index[listing.ID] = len(s.ordered)
	s.ordered = append(s.ordered, listing.Clone())
	return nil
}

func (s *InMemoryListingStore) FindByID(_ context.Context, listingID id.ListingID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[listingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.ordered[i].Clone(), nil
}

// Update applies fn to a copy under the write lock and stores the result
// only when fn succeeds.
func (s *InMemoryListingStore) Update(_ context.Context, listingID id.ListingID, fn func(*models.Listing) error) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[listingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := s.ordered[i].Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = listingID
	s.ordered[i] = working
	return working.Clone(), nil
}

func (s *InMemoryListingStore) SetRating(_ context.Context, listingID id.ListingID, rating float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[listingID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.ordered[i].AggregateRating = rating
	s.ordered[i].ReviewCount = count
	return nil
}

func (s *InMemoryListingStore) List(_ context.Context) ([]*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Listing, 0, len(s.ordered))
	for _, l := range s.ordered {
		out = append(out, l.Clone())
	}
	return out, nil
}

// Search returns listings whose name or cuisine contains query, ignoring
// case, in insertion order.
func (s *InMemoryListingStore) Search(_ context.Context, query string) ([]*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Listing, 0)
	for _, l := range s.ordered {
		if l.Matches(query) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}
