package sim

import (
	"math/rand"
	"sync"
)

// Rand is the randomness source injected into engines that roll dice
// (siege breaches, prosperity drift, spontaneous outbreaks). Seeding it
// makes whole simulation runs reproducible; tests always pass a fixed
// seed.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// lockedRand serializes access to one seeded source. Engines step
// different entities from different goroutines but share a single
// source, so the source itself must tolerate that.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRand returns a seeded source safe for concurrent use.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}
