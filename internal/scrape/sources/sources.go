// Package sources holds the closed set of supported portal variants.
// Each variant pairs a default retrieval strategy with a parse rule;
// adding a portal means adding one entry here, nothing else.
package sources

import (
	"fmt"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
)

// ParseError means the page's top-level layout wasn't recognized at all.
// A malformed entry within a recognized page is skipped, not fatal.
type ParseError struct {
	Source string
	Cause  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Cause)
}

// ParseFunc extracts listings from one fetched page. Pure: no I/O, no
// shared state. Returns the listings in page order plus the number of
// malformed entries skipped.
type ParseFunc func(html string, src config.Source) ([]domain.Listing, int, error)

type Variant struct {
	DefaultStrategy string
	Parse           ParseFunc
}

var registry = map[string]Variant{
	"bdjobs":    {DefaultStrategy: config.StrategyRendered, Parse: parseBdjobs},
	"careerhub": {DefaultStrategy: config.StrategyStatic, Parse: parseCareerhub},
}

func For(id string) (Variant, bool) {
	v, ok := registry[id]
	return v, ok
}

func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

func KnownIDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}
