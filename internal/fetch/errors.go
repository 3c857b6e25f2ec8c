package fetch

import "fmt"

// Failure causes, surfaced to the orchestrator as page failures.
const (
	CauseTimeout = "timeout"
	CauseHTTP    = "http_error"
	CauseRender  = "render_failure"
)

// Error is a fetch failure tagged with the source and page it belongs to.
type Error struct {
	Source   string
	Page     int
	Cause    string
	Status   int // http status for CauseHTTP, else 0
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s page %d: %s status=%d after %d attempt(s)", e.Source, e.Page, e.Cause, e.Status, e.Attempts)
	}
	return fmt.Sprintf("fetch %s page %d: %s after %d attempt(s): %v", e.Source, e.Page, e.Cause, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// retryable reports whether another attempt could help. Client errors
// (4xx) won't change on retry; everything else is assumed transient.
func (e *Error) retryable() bool {
	if e.Cause == CauseHTTP && e.Status >= 400 && e.Status < 500 {
		return false
	}
	return true
}
