package run

import (
	"context"
	"database/sql"
	"testing"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/scrape"
	"jobradar-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type fakeRunner struct {
	reports map[string]scrape.SourceReport
}

func (f *fakeRunner) RunSource(_ context.Context, src config.Source) scrape.SourceReport {
	return f.reports[src.ID]
}

func testStore(t *testing.T) *store.DB {
	t.Helper()
	pool, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, store.Migrate(pool))
	return &store.DB{Pool: pool}
}

func srcCfg(id string) config.Source {
	return config.Source{ID: id, BaseURL: "https://" + id + ".example.com/jobs?page=%d", MaxPages: 1, MaxConsecutiveFailures: 3}
}

func mkListing(source, title string) domain.Listing {
	return domain.Listing{
		Source:  source,
		Title:   title,
		Company: "Acme Ltd",
		URL:     "https://" + source + ".example.com/jobs/" + title,
	}
}

func newCoordinator(db *store.DB, runner SourceRunner) *Coordinator {
	return &Coordinator{
		DB:             db,
		Runner:         runner,
		IdentityFields: config.DefaultIdentityFields(),
		MaxConcurrent:  4,
	}
}

func TestOnceNoSourcesIsFatal(t *testing.T) {
	c := newCoordinator(testStore(t), &fakeRunner{})
	_, err := c.Once(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestOnceCountsNovelAndDuplicates(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	// seed one listing so its fingerprint is already known
	known := mkListing("portala", "Old Job")
	seeded := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{known}},
	}}
	_, err := newCoordinator(db, seeded).Once(ctx, []config.Source{srcCfg("portala")})
	require.NoError(t, err)

	// page 1 yields 3 listings, 1 of which duplicates the known fingerprint
	runner := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{
			mkListing("portala", "New Job A"),
			known,
			mkListing("portala", "New Job B"),
		}},
	}}

	res, err := newCoordinator(db, runner).Once(ctx, []config.Source{srcCfg("portala")})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Novel)
	assert.Equal(t, 1, res.Duplicates)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 3, res.Candidates)
	assert.Len(t, res.NewListings, 2)
}

func TestOnceIsIdempotent(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	runner := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{
			mkListing("portala", "Job 1"),
			mkListing("portala", "Job 2"),
		}},
	}}
	srcs := []config.Source{srcCfg("portala")}

	first, err := newCoordinator(db, runner).Once(ctx, srcs)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Novel)

	// nothing changed upstream: the second run sees zero novel listings
	second, err := newCoordinator(db, runner).Once(ctx, srcs)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Novel)
	assert.Equal(t, 2, second.Duplicates)
}

func TestOnceIsolatesSourceFailures(t *testing.T) {
	db := testStore(t)

	runner := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{mkListing("portala", "A1")}},
		"portalb": {Source: "portalb", Failures: []domain.PageFailure{
			{Source: "portalb", Page: 1, Stage: "fetch", Err: "timeout"},
			{Source: "portalb", Page: 2, Stage: "fetch", Err: "timeout"},
		}},
		"portalc": {Source: "portalc", PagesFetched: 1, Listings: []domain.Listing{mkListing("portalc", "C1")}},
	}}

	res, err := newCoordinator(db, runner).Once(context.Background(),
		[]config.Source{srcCfg("portala"), srcCfg("portalb"), srcCfg("portalc")})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Novel, "A and C land despite B failing entirely")
	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.Equal(t, "portalb", f.Source)
	}

	fps, err := store.LoadKnownFingerprints(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.Len(t, fps, 2)
}

func TestOnceConcurrentDuplicateSingleWinner(t *testing.T) {
	db := testStore(t)

	// two sources discover the same posting; identity excludes source/url
	// so both listings share a fingerprint
	same := domain.Listing{Title: "Shared Job", Company: "Acme Ltd"}
	a, b := same, same
	a.Source, a.URL = "portala", "https://portala.example.com/jobs/1"
	b.Source, b.URL = "portalb", "https://portalb.example.com/jobs/9"

	runner := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{a}},
		"portalb": {Source: "portalb", PagesFetched: 1, Listings: []domain.Listing{b}},
	}}

	c := newCoordinator(db, runner)
	c.IdentityFields = []string{"title", "company"}

	res, err := c.Once(context.Background(), []config.Source{srcCfg("portala"), srcCfg("portalb")})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Novel, "exactly one of the racing listings wins")
	assert.Equal(t, 1, res.Duplicates)

	var n int
	require.NoError(t, db.Pool.QueryRow(`SELECT COUNT(*) FROM listings;`).Scan(&n))
	assert.Equal(t, 1, n, "exactly one store insert")
}

func TestOnceStoreFailureRecordedNotFatal(t *testing.T) {
	db := testStore(t)

	runner := &fakeRunner{reports: map[string]scrape.SourceReport{
		"portala": {Source: "portala", PagesFetched: 1, Listings: []domain.Listing{
			mkListing("portala", "A1"),
			mkListing("portala", "A2"),
			mkListing("portala", "A3"),
		}},
	}}

	// preload still works, but every insert aborts like a dying backend
	_, err := db.Pool.Exec(`
CREATE TRIGGER fail_insert BEFORE INSERT ON listings
BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END;`)
	require.NoError(t, err)

	res, err := newCoordinator(db, runner).Once(context.Background(), []config.Source{srcCfg("portala")})
	require.NoError(t, err, "a failed run still produces a reportable result")

	assert.Equal(t, 0, res.Novel)
	assert.Equal(t, 3, res.StoreSkipped, "unwritten candidates stay accounted for")
	assert.Equal(t, res.Candidates, res.Novel+res.Duplicates+res.StoreSkipped)
	assert.Contains(t, res.StoreErr, "disk I/O error")
}
