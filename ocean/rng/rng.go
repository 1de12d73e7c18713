// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rng provides the seeded random number source used to draw the initial sea state.
package rng

import (
	"math"
	"math/bits"
	"math/rand"
)

// RNG is a reseedable pseudo random source. It is not safe for concurrent use.
type RNG struct {
	r *rand.Rand
}

// New creates an RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Seed resets the RNG so that it repeats the sequence of a fresh New(seed).
func (g *RNG) Seed(seed int64) {
	g.r.Seed(seed)
}

// Float64 returns a uniform value in [0, 1).
func (g *RNG) Float64() float64 {
	return g.r.Float64()
}

// Float32 returns a uniform value in [0, 1).
func (g *RNG) Float32() float32 {
	return g.r.Float32()
}

// Gaussian returns a standard normal value using the polar form of Box-Muller.
// Rejected points are drawn in float32 so very small radii can't underflow the log.
func (g *RNG) Gaussian() float64 {
	var x, y, length2 float32
	for {
		x = g.r.Float32()*2 - 1
		y = g.r.Float32()*2 - 1
		length2 = x*x + y*y
		if length2 < 1 && length2 != 0 {
			break
		}
	}
	l := float64(length2)
	return float64(x) * math.Sqrt(-2*math.Log(l)/l)
}

// HashInt2D mixes two integers into a well distributed 32 bit hash (Jenkins lookup3 final mix).
func HashInt2D(kx, ky uint32) uint32 {
	a := uint32(0xdeadbeef + (2 << 2) + 13)
	b, c := a, a

	c += ky
	b += kx

	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)

	return c
}
