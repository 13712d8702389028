package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reviewhub/internal/listing/models"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/platform/tx"
)

const listingColumns = `id, owner_id, name, address, cuisine, operating_hours, contact_details,
	menu, rating, review_count, is_open, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresListingStore persists listings in PostgreSQL. Insertion order is
// the seq column.
type PostgresListingStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresListingStore {
	return &PostgresListingStore{db: db}
}

// conn joins the caller's transaction when one is on the context.
func (s *PostgresListingStore) conn(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresListingStore) Create(ctx context.Context, l *models.Listing) error {
	menu, err := json.Marshal(l.Menu)
	if err != nil {
		return fmt.Errorf("encode menu: %w", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, l.ID.String(), l.OwnerID.String(), l.Name, l.Address, l.Cuisine, l.OperatingHours,
		l.ContactDetails, menu, l.AggregateRating, l.ReviewCount, l.IsOpen, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *PostgresListingStore) FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, listingID.String())
	return scanListing(row)
}

// Update locks the row, applies fn and writes the mutable columns back in one
// transaction. Rating columns are owned by SetRating and not written here.
func (s *PostgresListingStore) Update(ctx context.Context, listingID id.ListingID, fn func(*models.Listing) error) (*models.Listing, error) {
	var updated *models.Listing
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		row := s.conn(ctx).QueryRowContext(ctx,
			`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, listingID.String())
		l, err := scanListing(row)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		menu, err := json.Marshal(l.Menu)
		if err != nil {
			return fmt.Errorf("encode menu: %w", err)
		}
		_, err = s.conn(ctx).ExecContext(ctx, `
			UPDATE listings SET name = $2, address = $3, cuisine = $4, operating_hours = $5,
				contact_details = $6, menu = $7, is_open = $8, updated_at = $9
			WHERE id = $1
		`, listingID.String(), l.Name, l.Address, l.Cuisine, l.OperatingHours,
			l.ContactDetails, menu, l.IsOpen, l.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresListingStore) SetRating(ctx context.Context, listingID id.ListingID, rating float64, count int) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE listings SET rating = $2, review_count = $3 WHERE id = $1`,
		listingID.String(), rating, count)
	if err != nil {
		return fmt.Errorf("set listing rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set listing rating: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresListingStore) List(ctx context.Context) ([]*models.Listing, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return collectListings(rows)
}

// Search matches query as literal text with strpos, so LIKE and regex
// metacharacters in the query need no escaping.
func (s *PostgresListingStore) Search(ctx context.Context, query string) ([]*models.Listing, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(cuisine), lower($1)) > 0
		ORDER BY seq
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]*models.Listing, error) {
	defer rows.Close()
	out := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		l               models.Listing
		rawID, rawOwner string
		menu            []byte
	)
	err := row.Scan(&rawID, &rawOwner, &l.Name, &l.Address, &l.Cuisine, &l.OperatingHours,
		&l.ContactDetails, &menu, &l.AggregateRating, &l.ReviewCount, &l.IsOpen, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	if l.ID, err = id.ParseListingID(rawID); err != nil {
		return nil, fmt.Errorf("scan listing id: %w", err)
	}
	if l.OwnerID, err = id.ParseUserID(rawOwner); err != nil {
		return nil, fmt.Errorf("scan listing owner: %w", err)
	}
	if err := json.Unmarshal(menu, &l.Menu); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	if l.Menu == nil {
		l.Menu = []models.MenuItem{}
	}
	return &l, nil
}
