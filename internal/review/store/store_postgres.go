package store

import (
	"context"
	"database/sql"
	"fmt"

	"reviewhub/internal/platform/postgres"
	"reviewhub/internal/review/models"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/platform/tx"
)

const reviewColumns = `id, listing_id, author_id, rating, comment, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresReviewStore persists reviews in PostgreSQL.
type PostgresReviewStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresReviewStore {
	return &PostgresReviewStore{db: db}
}

func (s *PostgresReviewStore) conn(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

// Create inserts a review. A review for a listing that does not exist
// reports sentinel.ErrNotFound.
func (s *PostgresReviewStore) Create(ctx context.Context, r *models.Review) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID.String(), r.ListingID.String(), r.AuthorID.String(), r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		case postgres.IsUniqueViolation(err):
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *PostgresReviewStore) ListByListing(ctx context.Context, listingID id.ListingID) ([]*models.Review, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE listing_id = $1
		ORDER BY created_at, seq
	`, listingID.String())
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Review, 0)
	for rows.Next() {
		var (
			r                       models.Review
			reviewID, lID, authorID string
		)
		if err := rows.Scan(&reviewID, &lID, &authorID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if r.ID, err = id.ParseReviewID(reviewID); err != nil {
			return nil, fmt.Errorf("scan review id: %w", err)
		}
		if r.ListingID, err = id.ParseListingID(lID); err != nil {
			return nil, fmt.Errorf("scan review listing id: %w", err)
		}
		if r.AuthorID, err = id.ParseUserID(authorID); err != nil {
			return nil, fmt.Errorf("scan review author id: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}
