// Package match ranks known card fingerprints against a query fingerprint
// and turns the best distance into an accept/reject decision.
package match

import (
	"github.com/pokescan/backend/internal/phash"
)

// Candidate is one indexed card: its ID and serialized fingerprint.
type Candidate struct {
	CardID string
	Hash   string
}

// Match is the nearest candidate found for a query.
type Match struct {
	CardID   string
	Distance int
}

// Index answers nearest-neighbor queries by Hamming distance. Ties must be
// broken deterministically; callers may not assume any particular
// implementation beyond that.
type Index interface {
	Nearest(query phash.Fingerprint) (Match, bool)
}

// LinearIndex is a brute-force Index over an in-memory candidate set. At
// the catalog sizes this system tracks (thousands of cards) a linear scan
// is fast enough; the Index interface leaves room to swap in a bucketed
// structure later.
type LinearIndex struct {
	candidates []Candidate
}

// NewLinearIndex builds an index over the given candidates. Candidates with
// empty hashes are skipped.
func NewLinearIndex(candidates []Candidate) *LinearIndex {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Hash == "" {
			continue
		}
		kept = append(kept, c)
	}
	return &LinearIndex{candidates: kept}
}

// Len returns the number of indexed candidates.
func (ix *LinearIndex) Len() int {
	return len(ix.candidates)
}

// Nearest scans every candidate and returns the one with the smallest
// Hamming distance to the query. Equal distances resolve to the lowest card
// ID, so the ranking is reproducible regardless of storage order. An empty
// index returns ok=false.
func (ix *LinearIndex) Nearest(query phash.Fingerprint) (Match, bool) {
	queryHex := query.Hex()

	best := Match{Distance: phash.MaxDistance + 1}
	found := false
	for _, c := range ix.candidates {
		d := phash.DistanceHex(queryHex, c.Hash)
		if d < best.Distance || (d == best.Distance && c.CardID < best.CardID) {
			best = Match{CardID: c.CardID, Distance: d}
			found = true
		}
	}
	if !found {
		return Match{}, false
	}
	return best, true
}
