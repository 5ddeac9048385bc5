package service

import (
    "math/rand"
    "sync"
    "time"
)

// Rand is the uniform integer source consumed by ticket selection and
// the winner draw.  It is injected so tests can pin a seed and assert
// exact outcomes.
type Rand interface {
    // Intn returns a uniform int in [0, n).  n must be > 0.
    Intn(n int) int
}

// lockedRand guards a math/rand.Rand so concurrent purchases can share
// one source.
type lockedRand struct {
    mu sync.Mutex
    r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return l.r.Intn(n)
}

// NewRand returns the production random source, seeded from the clock.
func NewRand() Rand {
    return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRand returns a deterministic source for tests.
func NewSeededRand(seed int64) Rand {
    return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// sampleIndices picks count distinct indices from a pool of size n
// using a partial Fisher-Yates shuffle, so selection is uniform and
// independent of the pool's ordering.
func sampleIndices(rng Rand, n, count int) []int {
    idx := make([]int, n)
    for i := range idx {
        idx[i] = i
    }
    for i := 0; i < count; i++ {
        j := i + rng.Intn(n-i)
        idx[i], idx[j] = idx[j], idx[i]
    }
    return idx[:count]
}
