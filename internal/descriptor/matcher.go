package descriptor

import "math"

// Matcher classifies query vectors against a read-only labeled set
// snapshot. The snapshot is never updated in place; identities enrolled
// after a Matcher is built are not visible until a new one is built.
type Matcher struct {
	set []Labeled
}

// NewMatcher builds a matcher over a labeled set snapshot.
func NewMatcher(set []Labeled) (*Matcher, error) {
	if len(set) == 0 {
		return nil, ErrEmptySet
	}
	return &Matcher{set: set}, nil
}

// Match finds the enrolled vector with the minimum Euclidean distance to
// the query. If that distance exceeds MatchThreshold the result carries
// UnknownLabel. On exactly equal minimal distances the entry encountered
// first in the set's iteration order wins.
func (m *Matcher) Match(query []float32) (Result, error) {
	if err := Validate(query); err != nil {
		return Result{}, err
	}

	best := Result{Label: UnknownLabel, Distance: math.Inf(1)}
	for _, entry := range m.set {
		for _, vec := range entry.Vectors {
			d := EuclideanDistance(query, vec)
			if d < best.Distance {
				best = Result{Label: entry.Label, Distance: d}
			}
		}
	}

	if best.Distance > MatchThreshold {
		best.Label = UnknownLabel
	}
	return best, nil
}
