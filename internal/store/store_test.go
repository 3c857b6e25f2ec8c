package store

import (
	"context"
	"database/sql"
	"testing"

	"jobradar-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func listing(fp, title string) domain.Listing {
	return domain.Listing{
		Fingerprint: fp,
		Source:      "bdjobs",
		Title:       title,
		Company:     "Acme Ltd",
		Location:    "Dhaka",
		SalaryRaw:   "25,000 - 40,000 Tk",
		SalaryMin:   25000,
		SalaryMax:   40000,
		URL:         "https://jobs.example.com/" + fp,
	}
}

func TestInsertListingIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	added, err := InsertListing(ctx, db, listing("fp-1", "Engineer"))
	require.NoError(t, err)
	assert.True(t, added)

	// same fingerprint again: conflict is non-fatal, not a second row
	added, err = InsertListing(ctx, db, listing("fp-1", "Engineer (retitled)"))
	require.NoError(t, err)
	assert.False(t, added)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM listings;`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestInsertListingRequiresFingerprint(t *testing.T) {
	db := testDB(t)

	_, err := InsertListing(context.Background(), db, domain.Listing{Title: "No FP"})
	assert.ErrorIs(t, err, ErrMissingFingerprint)
}

func TestLoadKnownFingerprints(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, fp := range []string{"a", "b", "c"} {
		_, err := InsertListing(ctx, db, listing(fp, "T "+fp))
		require.NoError(t, err)
	}

	fps, err := LoadKnownFingerprints(ctx, db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fps)
}

func TestListRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := InsertListing(ctx, db, listing("fp-x", "Engineer"))
	require.NoError(t, err)

	out, err := ListRecent(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Engineer", out[0].Title)
	assert.Equal(t, int64(25000), out[0].SalaryMin)
	assert.Equal(t, int64(40000), out[0].SalaryMax)
}

func TestLocationAnalysis(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mk := func(fp, loc string, min, max int64) domain.Listing {
		l := listing(fp, "T "+fp)
		l.Location = loc
		l.SalaryMin, l.SalaryMax = min, max
		return l
	}
	for _, l := range []domain.Listing{
		mk("1", "Dhaka", 20000, 40000),
		mk("2", "Dhaka", 30000, 50000),
		mk("3", "Chattogram", 0, 0), // unparsed salary stays out of the average
	} {
		_, err := InsertListing(ctx, db, l)
		require.NoError(t, err)
	}

	stats, err := LocationAnalysis(ctx, db)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Dhaka", stats[0].Location)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 35000, stats[0].AvgSalary, 0.1)

	assert.Equal(t, "Chattogram", stats[1].Location)
	assert.Equal(t, 0.0, stats[1].AvgSalary)
}
