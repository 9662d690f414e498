package initializers

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the random number generator shared by the Initializers and by Operators that need
// randomness, such as Dropout. It is safe for concurrent use.
type Source struct {
	mux sync.Mutex
	r   *rand.Rand
}

var source = &Source{r: rand.New(rand.NewSource(time.Now().UnixNano()))}

// Seed resets the shared Source, so that weights and dropout masks are reproducible.
func Seed(seed int64) {
	source.mux.Lock()
	source.r = rand.New(rand.NewSource(seed))
	source.mux.Unlock()
}

// Rand returns the shared Source.
func Rand() *Source {
	return source
}

// Float64 returns a uniform random number in [0, 1).
func (s *Source) Float64() float64 {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.r.Float64()
}

// NormFloat64 returns a random number from the standard normal distribution.
func (s *Source) NormFloat64() float64 {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.r.NormFloat64()
}

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.r.Perm(n)
}

// RNG needs no explanation
type RNG interface {
	Gen() float64
}

type uniform struct {
	lower, upper float64
}

// Uniform returns RNG that gives values uniformly spread between its bounds, which can be set by
// Bounds. It defaults to [-0.05, 0.05), as in Keras.
func Uniform() *uniform {
	return &uniform{defaultValue["uniform-lower"], defaultValue["uniform-upper"]}
}

// Bounds sets the range of a Uniform RNG, returning it.
func (u *uniform) Bounds(lower, upper float64) *uniform {
	u.lower = lower
	u.upper = upper
	return u
}

// Gen is the implementation of RNG for Uniform. It returns a random number.
func (u *uniform) Gen() float64 {
	return source.Float64()*(u.upper-u.lower) + u.lower
}

type normal struct {
	µ, σ float64
}

// Normal returns an RNG that gives values within a normal distribution. The center and standard
// deviation can be set by Mean and SD, respectively.
func Normal() *normal {
	return &normal{defaultValue["normal-mean"], defaultValue["normal-sd"]}
}

// SD sets the value of the standard deviation of the normal distribution.
func (n *normal) SD(sd float64) *normal {
	n.σ = sd
	return n
}

// Mean sets the center of the normal distribution.
func (n *normal) Mean(mean float64) *normal {
	n.µ = mean
	return n
}

// Gen is the implementation of RNG for Normal. It returns a random number.
func (n *normal) Gen() float64 {
	return source.NormFloat64()*n.σ + n.µ
}

type truncNormal struct {
	*normal
	trunc float64
}

const defaultTrunc float64 = 2.0

// TruncNormal returns an RNG that gives values within an truncated normal distribution. The
// distribution is truncated at 2 standard deviations. The center and standard deviation can be set
// in the same way as Normal, because Normal is embedded in the TruncNormal type.
//
// Additionally, the number of standard deviations to truncate at can be set by Trunc.
func TruncNormal() *truncNormal {
	return &truncNormal{Normal(), defaultTrunc}
}

// Trunc sets the number of standard deviations to keep on either side. Trunc will panic if given
// sds <= 0.
func (t *truncNormal) Trunc(sds float64) *truncNormal {
	if sds <= 0 {
		panic("given number of standard deviations to truncate after is <= 0")
	}

	t.trunc = sds
	return t
}

// Gen is the implementation of RNG for TruncNormal. It returns a random number.
func (t *truncNormal) Gen() float64 {
	for {
		v := source.NormFloat64()
		if v < -t.trunc || v > t.trunc {
			continue
		}

		return v*t.σ + t.µ
	}
}
