// Package domain holds the typed identifiers shared across modules. Each ID is
// a distinct named UUID type so a ListingID can never be passed where a
// UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "reviewhub/pkg/domain-errors"
)

type (
	UserID    uuid.UUID
	ListingID uuid.UUID
	ReviewID  uuid.UUID
)

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewListingID() ListingID { return ListingID(uuid.New()) }
func NewReviewID() ReviewID   { return ReviewID(uuid.New()) }

// ParseUserID parses a non-nil UUID string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseListingID parses a non-nil UUID string into a ListingID.
func ParseListingID(s string) (ListingID, error) {
	u, err := parseUUID(s, "listing ID")
	return ListingID(u), err
}

// ParseReviewID parses a non-nil UUID string into a ReviewID.
func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID(s, "review ID")
	return ReviewID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ListingID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ListingID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets the IDs render as canonical strings in JSON bodies and map keys.
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ListingID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ReviewID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ListingID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ListingID(u)
	return nil
}

func (id *ReviewID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ReviewID(u)
	return nil
}
