package beam

import (
	"math"
	"slices"
)

// DefaultAlpha is the length penalty exponent.
const DefaultAlpha = 1.0

// LengthPenalty returns ((5+n)/6)^alpha, with n clamped to at least 1.
func LengthPenalty(n int, alpha float64) float64 {
	n = max(n, 1)
	return math.Pow((5+float64(n))/6, alpha)
}

// Normalize divides the candidate's score by the penalty for its emitted length.
func Normalize(c Candidate, alpha float64) float64 {
	return c.Score / LengthPenalty(c.Emitted(), alpha)
}

// Ranked is a candidate with its length-normalized score.
type Ranked struct {
	Candidate
	Normalized float64
}

// Rank normalizes every candidate and sorts by normalized score, highest
// first. Equal scores keep their input order.
func Rank(cands []Candidate, alpha float64) []Ranked {
	out := make([]Ranked, len(cands))
	for i, c := range cands {
		out[i] = Ranked{Candidate: c, Normalized: Normalize(c, alpha)}
	}
	slices.SortStableFunc(out, func(a, b Ranked) int {
		return compareDesc(a.Normalized, b.Normalized)
	})
	return out
}
