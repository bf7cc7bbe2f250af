package game

import (
	mathrand "math/rand"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestEngine(cat Catalog) *Engine {
	return New(cat, mathrand.New(mathrand.NewSource(1)), WithClock(testClock))
}

// scriptedRand replays queued draws, then falls back to the midpoint of every
// range: Intn(n) = n/2 and Float64 = 0.5. Byte draws (n == 256) come from a
// counter so generated ids stay unique.
type scriptedRand struct {
	ints   []int
	floats []float64
	bytes  int
}

func (r *scriptedRand) Intn(n int) int {
	if n == 256 {
		r.bytes++
		return r.bytes % 256
	}
	if len(r.ints) > 0 {
		v := r.ints[0]
		r.ints = r.ints[1:]
		return clampInt(v, 0, n-1)
	}
	return n / 2
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) > 0 {
		v := r.floats[0]
		r.floats = r.floats[1:]
		return v
	}
	return 0.5
}

func newScriptedEngine(cat Catalog, r *scriptedRand) *Engine {
	return New(cat, r, WithClock(testClock))
}

func hasLog(s *State, kind string) bool {
	return countLog(s, kind) > 0
}

func countLog(s *State, kind string) int {
	n := 0
	for _, l := range s.Log {
		if l.Type == kind {
			n++
		}
	}
	return n
}

func lastLog(t *testing.T, s *State) LogEntry {
	t.Helper()
	if len(s.Log) == 0 {
		t.Fatalf("expected at least one log entry")
	}
	return s.Log[len(s.Log)-1]
}

func logContains(s *State, kind, fragment string) bool {
	for _, l := range s.Log {
		if l.Type == kind && strings.Contains(l.Text, fragment) {
			return true
		}
	}
	return false
}

func intp(v int) *int { return &v }

func int64p(v int64) *int64 { return &v }

func boolp(v bool) *bool { return &v }

func floatp(v float64) *float64 { return &v }

func assertWorldBounds(t *testing.T, s *State) {
	t.Helper()
	w := s.World
	metrics := map[string]int{
		"stability":  w.Stability,
		"popularity": w.Popularity,
		"pressure":   w.Pressure,
		"morale":     w.Morale,
		"tech":       w.Tech,
		"threat":     w.Threat,
		"dominance":  w.Dominance,
	}
	for _, r := range Regions {
		metrics["influence."+string(r)] = w.Influence.Get(r)
	}
	for name, v := range metrics {
		if v < 0 || v > 100 {
			t.Fatalf("turn %d: %s=%d out of [0,100]", s.Turn, name, v)
		}
	}
	if s.Military.Army < 0 || s.Military.Navy < 0 || s.Military.Airforce < 0 {
		t.Fatalf("turn %d: negative military %+v", s.Turn, s.Military)
	}
	for _, war := range w.Wars {
		if war.Progress < -100 || war.Progress > 100 {
			t.Fatalf("war %s progress %d out of range", war.Target, war.Progress)
		}
		if war.Intensity < minIntensity || war.Intensity > maxIntensity {
			t.Fatalf("war %s intensity %v out of range", war.Target, war.Intensity)
		}
	}
}
