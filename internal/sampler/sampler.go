// Package sampler holds the single seedable random stream every generator
// draws from, plus the distributions built on top of it.
package sampler

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

type Sampler struct {
	seed int64
	src  *rand.ChaCha8
	rng  *rand.Rand
}

// New returns a sampler whose whole output is determined by seed.
func New(seed int64) *Sampler {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], uint64(seed))
	src := rand.NewChaCha8(key)
	return &Sampler{seed: seed, src: src, rng: rand.New(src)}
}

// NewFromClock seeds from the wall clock. The seed is still available via Seed.
func NewFromClock() *Sampler {
	return New(time.Now().UnixNano())
}

func (s *Sampler) Seed() int64 { return s.seed }

// Float64 is uniform in [0, 1).
func (s *Sampler) Float64() float64 { return s.rng.Float64() }

func (s *Sampler) Normal(mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

func (s *Sampler) LogNormal(mu, sigma float64) float64 {
	if sigma <= 0 {
		return math.Exp(mu)
	}
	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

// Poisson returns 0 for a non-positive or NaN rate.
func (s *Sampler) Poisson(lambda float64) int {
	if !(lambda > 0) {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.src}.Rand())
}

func (s *Sampler) Bernoulli(p float64) bool {
	switch {
	case p >= 1:
		return true
	case !(p > 0):
		return false
	}
	return distuv.Bernoulli{P: p, Src: s.src}.Rand() == 1
}

// UniformTime draws a nanosecond-resolution instant in [start, end).
// It returns start when the interval is empty.
func (s *Sampler) UniformTime(start, end time.Time) time.Time {
	delta := end.Sub(start)
	if delta <= 0 {
		return start
	}
	offset := time.Duration(s.rng.Float64() * float64(delta))
	if offset >= delta {
		offset = delta - 1
	}
	return start.Add(offset)
}

// UniformSeconds draws a whole-second instant in [start, end).
func (s *Sampler) UniformSeconds(start, end time.Time) time.Time {
	lo, hi := start.Unix(), end.Unix()
	if hi <= lo {
		return time.Unix(lo, 0).UTC()
	}
	return time.Unix(lo+s.rng.Int64N(hi-lo), 0).UTC()
}

// UUID returns a version 4 UUID read from the seeded stream.
func (s *Sampler) UUID() string {
	id, err := uuid.NewRandomFromReader(s.src)
	if err != nil {
		panic(fmt.Sprintf("sampler: uuid from chacha8 stream: %v", err))
	}
	return id.String()
}

// Chooser is a weighted categorical draw over string values.
type Chooser struct {
	values []string
	cat    distuv.Categorical
}

// NewChooser drops zero-weight values so they can never be drawn.
func (s *Sampler) NewChooser(values []string, weights []float64) (*Chooser, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to choose from")
	}
	if len(values) != len(weights) {
		return nil, fmt.Errorf("got %d values but %d weights", len(values), len(weights))
	}

	var kept []string
	var w []float64
	for i, weight := range weights {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("invalid weight %g for %q", weight, values[i])
		}
		if weight == 0 {
			continue
		}
		kept = append(kept, values[i])
		w = append(w, weight)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("all weights are zero")
	}

	return &Chooser{values: kept, cat: distuv.NewCategorical(w, s.src)}, nil
}

func (c *Chooser) Pick() string {
	return c.values[int(c.cat.Rand())]
}

func (c *Chooser) Values() []string { return c.values }
