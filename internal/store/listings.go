package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobradar-engine/internal/domain"
)

// ErrMissingFingerprint means the caller tried to persist a listing the
// coordinator never fingerprinted; that's a bug, not a store failure.
var ErrMissingFingerprint = errors.New("listing has no fingerprint")

// InsertListing persists a listing confirmed novel by the index.
// A fingerprint collision is a non-fatal conflict (added=false, nil error)
// thanks to the unique index + OR IGNORE; any non-nil error is a real
// store failure (connection/disk) and the caller should stop inserting.
func InsertListing(ctx context.Context, db *sql.DB, l domain.Listing) (added bool, err error) {
	if l.Fingerprint == "" {
		return false, ErrMissingFingerprint
	}

	var postedAt any
	if l.PostedAt != nil && !l.PostedAt.IsZero() {
		postedAt = l.PostedAt.UTC().Format(time.RFC3339)
	}
	var salaryMin, salaryMax any
	if l.SalaryMin > 0 || l.SalaryMax > 0 {
		salaryMin, salaryMax = l.SalaryMin, l.SalaryMax
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO listings
  (fingerprint, source, title, company, location, salary_raw, salary_min, salary_max, url, posted_at, snippet, scraped_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?);`,
		l.Fingerprint, l.Source, l.Title, l.Company, l.Location,
		l.SalaryRaw, salaryMin, salaryMax, l.URL, postedAt, l.Snippet,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// LoadKnownFingerprints returns every persisted fingerprint; the run
// coordinator preloads these into the novelty index at run start.
func LoadKnownFingerprints(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT fingerprint FROM listings;`)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func ListRecent(ctx context.Context, db *sql.DB, limit int) ([]domain.Listing, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	rows, err := db.QueryContext(ctx, `
SELECT fingerprint, source, title, company, location, salary_raw, salary_min, salary_max, url, posted_at, snippet
FROM listings
ORDER BY scraped_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		var l domain.Listing
		var salaryMin, salaryMax sql.NullInt64
		var postedAt sql.NullString
		if err := rows.Scan(
			&l.Fingerprint, &l.Source, &l.Title, &l.Company, &l.Location,
			&l.SalaryRaw, &salaryMin, &salaryMax, &l.URL, &postedAt, &l.Snippet,
		); err != nil {
			return nil, err
		}
		l.SalaryMin = salaryMin.Int64
		l.SalaryMax = salaryMax.Int64
		if postedAt.Valid {
			if t, err := time.Parse(time.RFC3339, postedAt.String); err == nil {
				l.PostedAt = &t
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func CleanupOldListings(db *sql.DB, retentionDays int) (deleted int64, err error) {
	res, err := db.Exec(fmt.Sprintf(`
DELETE FROM listings
WHERE scraped_at < datetime('now', '-%d days');`, retentionDays))
	if err != nil {
		return 0, fmt.Errorf("cleanup old listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
