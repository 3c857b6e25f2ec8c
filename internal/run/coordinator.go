// Package run fans the source orchestrator out across all configured
// portals under a bounded concurrency budget and funnels every candidate
// listing through the novelty index into the store.
package run

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/events"
	"jobradar-engine/internal/fingerprint"
	"jobradar-engine/internal/scrape"
	"jobradar-engine/internal/store"
)

// SourceRunner is the per-source orchestration contract.
type SourceRunner interface {
	RunSource(ctx context.Context, src config.Source) scrape.SourceReport
}

type Coordinator struct {
	DB             *store.DB
	Runner         SourceRunner
	IdentityFields []string
	MaxConcurrent  int
	Hub            *events.Hub // optional
}

var ErrNoSources = errors.New("no sources configured")

// Once executes one full pipeline run. Per-source failures land in the
// result, never in the returned error; only a config-level problem or a
// failure to preload the fingerprint set aborts the run itself.
func (c *Coordinator) Once(ctx context.Context, srcs []config.Source) (*Result, error) {
	if len(srcs) == 0 {
		return nil, ErrNoSources
	}

	started := time.Now()

	// Load-then-trust: one query at run start, never a per-listing lookup.
	known, err := store.LoadKnownFingerprints(ctx, c.DB.Pool)
	if err != nil {
		return nil, err
	}
	idx := fingerprint.NewIndex()
	idx.Preload(known)

	log.Printf("[run] starting: sources=%d known_fingerprints=%d workers=%d",
		len(srcs), idx.Len(), c.MaxConcurrent)
	c.publish(events.TypeRunStarted, map[string]any{"sources": len(srcs)})

	res := &Result{StartedAt: started.UTC(), Sources: len(srcs)}
	var mu sync.Mutex
	var storeDown atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(c.MaxConcurrent)

	for _, src := range srcs {
		g.Go(func() error {
			rep := c.Runner.RunSource(ctx, src)

			novel, dup, unstored := 0, 0, 0
			var fresh []domain.Listing
			for _, l := range rep.Listings {
				l.Fingerprint = fingerprint.Compute(l, c.IdentityFields)

				if !idx.CheckAndRegister(l.Fingerprint) {
					dup++
					continue
				}
				if storeDown.Load() {
					// storage already failed this run; skip the write but
					// keep the candidate accounted for
					unstored++
					continue
				}

				added, ierr := store.InsertListing(ctx, c.DB.Pool, l)
				if ierr != nil {
					storeDown.Store(true)
					log.Printf("[run:%s] store failure, aborting remaining inserts: %v", src.ID, ierr)
					unstored++
					mu.Lock()
					if res.StoreErr == "" {
						res.StoreErr = ierr.Error()
					}
					mu.Unlock()
					continue
				}
				if !added {
					// index and store disagreed; treat as a duplicate race, not an error
					dup++
					continue
				}

				novel++
				fresh = append(fresh, l)
				c.publish(events.TypeListingAdded, map[string]any{
					"source": l.Source, "title": l.Title, "company": l.Company,
				})
			}

			mu.Lock()
			res.PagesFetched += rep.PagesFetched
			res.Candidates += len(rep.Listings)
			res.Skipped += rep.Skipped
			res.Novel += novel
			res.Duplicates += dup
			res.StoreSkipped += unstored
			res.Failures = append(res.Failures, rep.Failures...)
			res.NewListings = append(res.NewListings, fresh...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	res.ElapsedMs = time.Since(started).Milliseconds()
	log.Printf("[run] done in %dms: pages=%d candidates=%d novel=%d duplicates=%d failures=%d",
		res.ElapsedMs, res.PagesFetched, res.Candidates, res.Novel, res.Duplicates, len(res.Failures))
	c.publish(events.TypeRunFinished, map[string]any{
		"novel": res.Novel, "duplicates": res.Duplicates, "failures": len(res.Failures),
	})

	return res, nil
}

func (c *Coordinator) publish(typ string, data any) {
	if c.Hub == nil {
		return
	}
	c.Hub.Emit(typ, data)
}
