// Package descriptor implements nearest-neighbor matching of face
// descriptors against a labeled set of enrolled identities.
package descriptor

import (
	"errors"
	"math"
)

// Dim is the fixed length of a face descriptor. Vectors with any other
// length are invalid and must never be persisted or matched.
const Dim = 128

// MatchThreshold is the maximum Euclidean distance at which a query is
// still considered a match for an enrolled descriptor.
const MatchThreshold = 0.6

// UnknownLabel is returned when no enrolled descriptor is within the
// match threshold.
const UnknownLabel = "unknown"

var (
	// ErrInvalidDescriptor signals a vector whose length is not Dim.
	ErrInvalidDescriptor = errors.New("descriptor must contain exactly 128 values")
	// ErrEmptySet signals a labeled set with no entries. Callers must treat
	// this as "no enrolled identities" rather than a crash.
	ErrEmptySet = errors.New("labeled set contains no entries")
)

// Labeled groups the enrolled descriptor vectors belonging to one identity.
type Labeled struct {
	Label   string
	Vectors [][]float32
}

// Result is the outcome of matching a single query vector.
type Result struct {
	Label    string
	Distance float64
}

// Validate checks that a vector has the required descriptor length.
func Validate(vec []float32) error {
	if len(vec) != Dim {
		return ErrInvalidDescriptor
	}
	return nil
}

// EuclideanDistance computes the plain L2 distance between two vectors.
// No normalization is applied to the inputs.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1) // Maximum distance for invalid input
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
