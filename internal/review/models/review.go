package models

import (
	"strings"
	"time"

	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

// Review is a single rating and comment left by an authenticated user.
type Review struct {
	ID        id.ReviewID  `json:"id"`
	ListingID id.ListingID `json:"listingId"`
	AuthorID  id.UserID    `json:"authorId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// ReviewView is a review as served to readers, with the author's display name.
type ReviewView struct {
	*Review
	AuthorUsername string `json:"authorUsername,omitempty"`
}

// CreateReviewRequest is the client payload. The author is never taken from
// the body.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r *CreateReviewRequest) Normalize() {
	r.Comment = strings.TrimSpace(r.Comment)
}

func (r *CreateReviewRequest) Validate() error {
	fields := map[string]string{}
	if r.Rating < MinRating || r.Rating > MaxRating {
		fields["rating"] = "rating must be between 1 and 5"
	}
	if len(r.Comment) > MaxCommentLength {
		fields["comment"] = "comment is too long"
	}
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

func (r *CreateReviewRequest) ToReview(authorID id.UserID, listingID id.ListingID, now time.Time) *Review {
	return &Review{
		ID:        id.NewReviewID(),
		ListingID: listingID,
		AuthorID:  authorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ReviewCreated is emitted after a review is durably stored.
type ReviewCreated struct {
	ReviewID  id.ReviewID  `json:"reviewId"`
	ListingID id.ListingID `json:"listingId"`
	AuthorID  id.UserID    `json:"authorId"`
	Rating    int          `json:"rating"`
	CreatedAt time.Time    `json:"createdAt"`
}

func NewReviewCreated(r *Review) ReviewCreated {
	return ReviewCreated{
		ReviewID:  r.ID,
		ListingID: r.ListingID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}
