package descriptor

import (
	"errors"
	"math"
	"testing"
)

func testVector(fill float32) []float32 {
	vec := make([]float32, Dim)
	for i := range vec {
		vec[i] = fill
	}
	return vec
}

func TestValidate(t *testing.T) {
	if err := Validate(testVector(0.5)); err != nil {
		t.Errorf("expected 128-length vector to be valid, got %v", err)
	}

	for _, n := range []int{0, 1, 127, 129, 512} {
		if err := Validate(make([]float32, n)); !errors.Is(err, ErrInvalidDescriptor) {
			t.Errorf("expected ErrInvalidDescriptor for length %d, got %v", n, err)
		}
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := testVector(0)
	b := testVector(0)

	if d := EuclideanDistance(a, b); d != 0 {
		t.Errorf("expected distance 0 for identical vectors, got %f", d)
	}

	// One coordinate differs by 0.9.
	b[0] = 0.9
	if d := EuclideanDistance(a, b); math.Abs(d-0.9) > 1e-6 {
		t.Errorf("expected distance 0.9, got %f", d)
	}

	if d := EuclideanDistance(a, make([]float32, 5)); !math.IsInf(d, 1) {
		t.Errorf("expected infinite distance for mismatched lengths, got %f", d)
	}
}

func TestNewMatcher_EmptySet(t *testing.T) {
	if _, err := NewMatcher(nil); !errors.Is(err, ErrEmptySet) {
		t.Errorf("expected ErrEmptySet for nil set, got %v", err)
	}
	if _, err := NewMatcher([]Labeled{}); !errors.Is(err, ErrEmptySet) {
		t.Errorf("expected ErrEmptySet for empty set, got %v", err)
	}
}

func TestMatch_ExactMatch(t *testing.T) {
	enrolled := testVector(0.25)
	m, err := NewMatcher([]Labeled{{Label: "Asha", Vectors: [][]float32{enrolled}}})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	res, err := m.Match(enrolled)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if res.Label != "Asha" {
		t.Errorf("expected label 'Asha', got '%s'", res.Label)
	}
	if res.Distance != 0 {
		t.Errorf("expected distance 0, got %f", res.Distance)
	}
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	enrolled := testVector(0)

	tests := []struct {
		name     string
		offset   float32 // distance from the enrolled vector
		expected string
	}{
		{"well inside threshold", 0.25, "Asha"},
		{"just inside threshold", 0.59375, "Asha"},
		{"beyond threshold", 0.9, UnknownLabel},
	}

	m, err := NewMatcher([]Labeled{{Label: "Asha", Vectors: [][]float32{enrolled}}})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := testVector(0)
			query[0] = tt.offset

			res, err := m.Match(query)
			if err != nil {
				t.Fatalf("match failed: %v", err)
			}
			if res.Label != tt.expected {
				t.Errorf("expected label '%s', got '%s' (distance %f)", tt.expected, res.Label, res.Distance)
			}
		})
	}
}

func TestMatch_PicksMinimumAcrossEntries(t *testing.T) {
	far := testVector(0)
	far[0] = 0.5
	near := testVector(0)
	near[0] = 0.1

	m, err := NewMatcher([]Labeled{
		{Label: "Ravi", Vectors: [][]float32{far}},
		{Label: "Asha", Vectors: [][]float32{near}},
	})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	res, err := m.Match(testVector(0))
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if res.Label != "Asha" {
		t.Errorf("expected nearest label 'Asha', got '%s'", res.Label)
	}
}

func TestMatch_TieBreakFirstEntryWins(t *testing.T) {
	// Two identical enrolled vectors under different labels. The entry
	// encountered first in iteration order must win.
	vec := testVector(0.4)

	m, err := NewMatcher([]Labeled{
		{Label: "First", Vectors: [][]float32{vec}},
		{Label: "Second", Vectors: [][]float32{vec}},
	})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	res, err := m.Match(vec)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if res.Label != "First" {
		t.Errorf("expected tie to resolve to 'First', got '%s'", res.Label)
	}
}

func TestMatch_RejectsInvalidQuery(t *testing.T) {
	m, err := NewMatcher([]Labeled{{Label: "Asha", Vectors: [][]float32{testVector(0)}}})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	if _, err := m.Match(make([]float32, 64)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor for short query, got %v", err)
	}
}
