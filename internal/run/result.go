package run

import (
	"time"

	"jobradar-engine/internal/domain"
)

// Result is the aggregate outcome of one full pipeline run. Created fresh
// per run, handed to the notifier and the /status endpoint, not persisted.
type Result struct {
	StartedAt    time.Time            `json:"startedAt"`
	ElapsedMs    int64                `json:"elapsedMs"`
	Sources      int                  `json:"sources"`
	PagesFetched int                  `json:"pagesFetched"`
	Candidates   int                  `json:"candidates"`
	Novel        int                  `json:"novel"`
	Duplicates   int                  `json:"duplicates"`
	Skipped      int                  `json:"skipped"`
	StoreSkipped int                  `json:"storeSkipped"` // novel candidates not written because storage failed mid-run
	StoreErr     string               `json:"storeErr,omitempty"`
	Failures     []domain.PageFailure `json:"failures"`
	NewListings  []domain.Listing     `json:"newListings"`
}
