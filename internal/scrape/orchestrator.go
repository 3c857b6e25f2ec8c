// Package scrape drives one source's page sequence through fetch and
// parse, isolating page-level failures so one bad page never sinks the
// source and one bad source never sinks the run.
package scrape

import (
	"context"
	"log"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/scrape/sources"
)

// PageFetcher is what the orchestrator needs from the fetch layer.
type PageFetcher interface {
	Fetch(ctx context.Context, src config.Source, page int) (string, error)
}

type Orchestrator struct {
	Fetcher PageFetcher
}

// SourceReport is everything one source run produced, successes and
// failures both; the coordinator folds these into the RunResult.
type SourceReport struct {
	Source       string
	Listings     []domain.Listing
	Failures     []domain.PageFailure
	PagesFetched int
	Skipped      int // malformed entries dropped by the parser
}

// RunSource walks pages 1..MaxPages in order. A page failure is recorded
// and the loop moves on; a streak of consecutive failures trips the
// circuit breaker so a portal that went down mid-run isn't hammered.
// Never returns an error: the report is the whole contract.
func (o *Orchestrator) RunSource(ctx context.Context, src config.Source) SourceReport {
	rep := SourceReport{Source: src.ID}

	variant, ok := sources.For(src.ID)
	if !ok {
		// startup validation rejects unknown variants; keep the run alive anyway
		rep.Failures = append(rep.Failures, domain.PageFailure{
			Source: src.ID, Page: 0, Stage: "parse", Err: "no parser registered for source",
		})
		return rep
	}

	consecutive := 0
	for page := 1; page <= src.MaxPages; page++ {
		if ctx.Err() != nil {
			break
		}

		html, err := o.Fetcher.Fetch(ctx, src, page)
		if err != nil {
			log.Printf("[scrape:%s] page %d fetch failed: %v", src.ID, page, err)
			rep.Failures = append(rep.Failures, domain.PageFailure{
				Source: src.ID, Page: page, Stage: "fetch", Err: err.Error(),
			})
			consecutive++
			if consecutive >= src.MaxConsecutiveFailures {
				log.Printf("[scrape:%s] %d consecutive page failures, stopping early", src.ID, consecutive)
				break
			}
			continue
		}
		rep.PagesFetched++

		listings, skipped, err := variant.Parse(html, src)
		if err != nil {
			log.Printf("[scrape:%s] page %d parse failed: %v", src.ID, page, err)
			rep.Failures = append(rep.Failures, domain.PageFailure{
				Source: src.ID, Page: page, Stage: "parse", Err: err.Error(),
			})
			consecutive++
			if consecutive >= src.MaxConsecutiveFailures {
				log.Printf("[scrape:%s] %d consecutive page failures, stopping early", src.ID, consecutive)
				break
			}
			continue
		}

		consecutive = 0
		rep.Skipped += skipped
		rep.Listings = append(rep.Listings, listings...)
	}

	log.Printf("[scrape:%s] done: pages=%d listings=%d skipped=%d failures=%d",
		src.ID, rep.PagesFetched, len(rep.Listings), rep.Skipped, len(rep.Failures))
	return rep
}
