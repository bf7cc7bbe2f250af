// Package random provides seed generation for the engine's random source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Source returns a math/rand generator for seed, drawing a fresh seed when
// seed is 0. The seed actually used is returned so runs can be replayed.
func Source(seed int64) (*mathrand.Rand, int64, error) {
	if seed == 0 {
		s, err := NewSeed()
		if err != nil {
			return nil, 0, err
		}
		seed = s
	}
	return mathrand.New(mathrand.NewSource(seed)), seed, nil
}
