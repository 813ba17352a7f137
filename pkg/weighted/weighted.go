// Package weighted implements one-draw weighted random selection. It is a
// pure function over its inputs: callers inject the random source, which
// keeps every draw reproducible in tests.
package weighted

import (
	"errors"
	"fmt"
	"math"
)

type Item struct {
	ID     string
	Weight float64
}

// Source yields uniform random values in [0, 1).
type Source interface {
	Float64() float64
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

var (
	ErrNoItems       = errors.New("weighted: empty item list")
	ErrInvalidWeight = errors.New("weighted: weight must be finite and positive")
	ErrInvalidID     = errors.New("weighted: empty item id")
	ErrBadSource     = errors.New("weighted: random source returned a value outside [0, 1)")
)

// Pick selects exactly one item id with probability proportional to its
// weight, using a single draw from src. It walks the list once and keeps no
// extra state, so the input does not need to be sorted.
func Pick(items []Item, src Source) (string, error) {
	if len(items) == 0 {
		return "", ErrNoItems
	}

	total := 0.0
	for _, item := range items {
		if item.ID == "" {
			return "", ErrInvalidID
		}

		if item.Weight <= 0 || math.IsInf(item.Weight, 0) || math.IsNaN(item.Weight) {
			return "", fmt.Errorf("%w: item %q has weight %v", ErrInvalidWeight, item.ID, item.Weight)
		}

		total += item.Weight
	}

	draw := src.Float64()
	if draw < 0 || draw >= 1 {
		return "", fmt.Errorf("%w: got %v", ErrBadSource, draw)
	}

	target := draw * total
	cumulative := 0.0
	for _, item := range items {
		cumulative += item.Weight
		if target < cumulative {
			return item.ID, nil
		}
	}

	// Only reachable through floating point rounding at the top edge.
	return items[len(items)-1].ID, nil
}
