// Package fingerprint computes listing identity digests and tracks which
// ones a run has already seen.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobradar-engine/internal/domain"
)

// Compute returns the identity digest for a listing: sha256 over the
// normalized values of the configured identity fields, in field order.
// Unknown field names are ignored; validation rejects them at startup.
func Compute(l domain.Listing, fields []string) string {
	h := sha256.New()
	for _, f := range fields {
		var v string
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "source":
			v = l.Source
		case "title":
			v = l.Title
		case "company":
			v = l.Company
		case "location":
			v = l.Location
		case "url":
			v = l.URL
		default:
			continue
		}
		h.Write([]byte(normalize(v)))
		h.Write([]byte{0}) // field separator, so "ab"+"c" != "a"+"bc"
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
