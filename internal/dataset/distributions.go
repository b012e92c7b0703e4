package dataset

import (
	"math"
	"math/rand"
)

// sampler wraps a seeded source with the draws the generator needs. All draws
// go through one stream so a given seed always produces the same sequence.
type sampler struct {
	rng *rand.Rand
}

func newSampler(seed int64) *sampler {
	return &sampler{rng: rand.New(rand.NewSource(seed))}
}

// normal draws from Normal(mean, sd).
func (s *sampler) normal(mean, sd float64) float64 {
	return s.rng.NormFloat64()*sd + mean
}

// exponential draws from Exponential with the given mean.
func (s *sampler) exponential(mean float64) float64 {
	return s.rng.ExpFloat64() * mean
}

// poisson draws from Poisson(lambda) by Knuth's product method. Fine for the
// small rates used here (< 1).
func (s *sampler) poisson(lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= s.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// logNormal draws from LogNormal(mu, sigma).
func (s *sampler) logNormal(mu, sigma float64) float64 {
	return math.Exp(s.normal(mu, sigma))
}

// bernoulli draws true with probability p.
func (s *sampler) bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// categorical draws an index according to the given weights, which are
// expected to sum to 1.
func (s *sampler) categorical(weights []float64) int {
	u := s.rng.Float64()
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	return len(weights) - 1
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
