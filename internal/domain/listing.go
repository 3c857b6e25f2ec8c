package domain

import "time"

// Listing is one job posting candidate as extracted from a portal page.
// Immutable once built by a parser; a changed posting upstream becomes a
// new Listing with a new fingerprint.
type Listing struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	SalaryRaw   string     `json:"salaryRaw"`
	SalaryMin   int64      `json:"salaryMin"` // 0 when no numeric range could be extracted
	SalaryMax   int64      `json:"salaryMax"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
	Snippet     string     `json:"snippet"`
	Fingerprint string     `json:"fingerprint"` // set by the run coordinator before storage
}

// PageFailure records one failed page within a source run.
type PageFailure struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Stage  string `json:"stage"` // fetch | parse
	Err    string `json:"err"`
}
