// Package entropy provides the randomness source every stochastic branch of
// the simulation draws from. A seeded source makes growth and hazard
// outcomes reproducible; the crypto source is used when no seed is given.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source yields uniform random numbers.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Seeded is a deterministic source.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float64() float64 { return s.rng.Float64() }
func (s *Seeded) Intn(n int) int   { return s.rng.Intn(n) }

// Crypto draws from crypto/rand. Safe for concurrent use.
type Crypto struct{}

func (Crypto) Float64() float64 { return cryptoRandFloat() }

func (Crypto) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(cryptoRandFloat() * float64(n))
}

// New returns a seeded source, or Crypto when seed is 0.
func New(seed int64) Source {
	if seed == 0 {
		return Crypto{}
	}
	return NewSeeded(seed)
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Fixed always returns the same value. Tests use it to force or suppress
// every probabilistic branch at once.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

func (f Fixed) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(float64(f) * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
