// Package sampler draws score samples from normal distributions and fills
// truncated sample pools by rejection.
package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// DefaultBatchSize is the number of draws requested per rejection round.
const DefaultBatchSize = 2000

// Sampler draws count values from Normal(mean, stddev).
type Sampler interface {
	Normal(mean, stddev float64, count int) []float64
}

// Normal draws from the goroutine-safe top-level math/rand/v2 generator.
type Normal struct{}

// NewNormal returns the production sampler.
func NewNormal() Normal { return Normal{} }

// Normal implements Sampler.
func (Normal) Normal(mean, stddev float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = rand.NormFloat64()*stddev + mean
	}
	return out
}

// Bounds is the acceptance region of a truncated distribution.
type Bounds struct {
	Min, Max                   float64
	MinInclusive, MaxInclusive bool
}

// Open returns bounds excluding both ends.
func Open(lo, hi float64) Bounds { return Bounds{Min: lo, Max: hi} }

// Closed returns bounds including both ends.
func Closed(lo, hi float64) Bounds {
	return Bounds{Min: lo, Max: hi, MinInclusive: true, MaxInclusive: true}
}

// Contains reports whether v lies inside b.
func (b Bounds) Contains(v float64) bool {
	if b.MinInclusive {
		if v < b.Min {
			return false
		}
	} else if v <= b.Min {
		return false
	}
	if b.MaxInclusive {
		return v <= b.Max
	}
	return v < b.Max
}

// String formats b in interval notation.
func (b Bounds) String() string {
	lo, hi := "(", ")"
	if b.MinInclusive {
		lo = "["
	}
	if b.MaxInclusive {
		hi = "]"
	}
	return fmt.Sprintf("%s%g, %g%s", lo, b.Min, b.Max, hi)
}

// Stats reports how much work a fill took.
type Stats struct {
	Drawn    int
	Accepted int
	Batches  int
}

// Fill draws batches from s until size values inside b are collected. It
// keeps going for as many batches as it takes; ctx is checked between
// batches. A non-positive size returns an empty pool without calling s.
func Fill(ctx context.Context, s Sampler, mean, stddev float64, b Bounds, size, batch int) (*Pool, Stats, error) {
	var st Stats
	if size <= 0 {
		return &Pool{}, st, nil
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	values := make([]float64, 0, size)
	for len(values) < size {
		if err := ctx.Err(); err != nil {
			return nil, st, fmt.Errorf("fill pool: %w", err)
		}
		draws := s.Normal(mean, stddev, batch)
		st.Batches++
		st.Drawn += len(draws)
		for _, v := range draws {
			if !b.Contains(v) {
				continue
			}
			values = append(values, v)
			if len(values) == size {
				break
			}
		}
	}
	st.Accepted = len(values)
	return &Pool{values: values}, st, nil
}
