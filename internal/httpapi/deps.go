package httpapi

import (
	"sync/atomic"

	"jobradar-engine/internal/events"
	"jobradar-engine/internal/store"
)

// RunStatus mirrors the scheduler/coordinator state for /status.
type RunStatus struct {
	Running    bool   `json:"running"`
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastNovel  int    `json:"last_novel"`
	LastResult any    `json:"last_result,omitempty"`
}

type Deps struct {
	DB  *store.DB
	Hub *events.Hub

	Status *atomic.Value // stores RunStatus

	// TriggerRun starts an out-of-band run; false when one is in flight.
	TriggerRun func() bool
}
