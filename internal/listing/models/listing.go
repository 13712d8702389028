package models

import (
	"strings"
	"time"

	id "reviewhub/pkg/domain"
)

// MenuItem is one priced entry of a listing's menu.
type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// Listing is a business entry that accepts reviews.
//
// Invariants:
//   - Name and Address are non-empty
//   - AggregateRating is the one-decimal mean of all reviews (0 when none)
//     and is only written by the rating aggregator
//   - Closing is a soft transition (IsOpen=false); listings are never removed
type Listing struct {
	ID              id.ListingID `json:"id"`
	OwnerID         id.UserID    `json:"ownerId"`
	Name            string       `json:"name"`
	Address         string       `json:"address"`
	Cuisine         string       `json:"cuisine,omitempty"`
	OperatingHours  string       `json:"operatingHours,omitempty"`
	ContactDetails  string       `json:"contactDetails,omitempty"`
	Menu            []MenuItem   `json:"menu"`
	AggregateRating float64      `json:"aggregateRating"`
	ReviewCount     int          `json:"reviewCount"`
	IsOpen          bool         `json:"isOpen"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy so stores never share menu slices with callers.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Menu = append([]MenuItem(nil), l.Menu...)
	if c.Menu == nil {
		c.Menu = []MenuItem{}
	}
	return &c
}

// IsOwnedBy reports whether userID created the listing.
func (l *Listing) IsOwnedBy(userID id.UserID) bool {
	return l.OwnerID == userID
}

// Close marks the listing closed. Closing a closed listing is a no-op.
func (l *Listing) Close(now time.Time) {
	if !l.IsOpen {
		return
	}
	l.IsOpen = false
	l.UpdatedAt = now
}

// Matches reports whether query occurs in Name or Cuisine, ignoring case.
// The query is literal text; no pattern syntax is interpreted.
func (l *Listing) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.Cuisine), q)
}
