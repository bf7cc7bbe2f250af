package game

import (
	"time"

	"github.com/google/uuid"
)

// Rand is the random source the engine draws from. *math/rand.Rand satisfies
// it; tests substitute seeded or scripted sources.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Engine applies commands to a State. It holds no per-game data: the catalog
// is immutable and every State is passed in explicitly. An Engine is not safe
// for concurrent use because its Rand usually is not.
type Engine struct {
	catalog Catalog
	rng     Rand
	now     func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now for timestamps written into the state.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(catalog Catalog, rng Rand, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, rng: rng, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() Catalog {
	return e.catalog
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

// randInt draws uniformly from [low, high].
func (e *Engine) randInt(low, high int) int {
	return low + e.rng.Intn(high-low+1)
}

func (e *Engine) logf(s *State, kind, text string) {
	s.Log = append(s.Log, LogEntry{T: e.nowMillis(), Type: kind, Text: text})
}

type randReader struct{ r Rand }

func (rr randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(rr.r.Intn(256))
	}
	return len(p), nil
}

// newID draws a UUIDv4 from the engine's source so seeded runs repeat ids.
func (e *Engine) newID(prefix string) string {
	id, err := uuid.NewRandomFromReader(randReader{e.rng})
	if err != nil {
		return prefix + uuid.NewString()
	}
	return prefix + id.String()
}
