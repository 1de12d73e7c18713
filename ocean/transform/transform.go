// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transform wraps the FFT library as complex-to-real inverse transform plans.
package transform

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// ErrSize is returned when plan buffers don't match the plan dimensions.
var ErrSize = errors.New("transform: buffer size mismatch")

// planMutex serializes plan creation and destruction across all plans.
// Executing independent plans concurrently is fine.
var planMutex sync.Mutex

// Plan transforms an m×(n/2+1) Hermitian half spectrum into an m×n real field.
// The transform is unnormalized: a single unit coefficient yields a unit amplitude wave.
type Plan struct {
	m, n int
	in   []complex128
	out  []float64
	full [][]complex128
}

// NewPlan binds in (length m*(n/2+1)) and out (length m*n) to a new plan.
func NewPlan(m, n int, in []complex128, out []float64) (*Plan, error) {
	if m < 1 || n < 2 {
		return nil, fmt.Errorf("transform: invalid dimensions %dx%d: %w", m, n, ErrSize)
	}
	if len(in) != m*HalfWidth(n) || len(out) != m*n {
		return nil, fmt.Errorf("transform: in %d out %d for %dx%d: %w", len(in), len(out), m, n, ErrSize)
	}

	planMutex.Lock()
	defer planMutex.Unlock()

	// Twiddle factors are cached by the library; warm them once per size.
	if isPowerOfTwo(m) {
		fft.EnsureRadix2Factors(m)
	}
	if isPowerOfTwo(n) {
		fft.EnsureRadix2Factors(n)
	}

	full := make([][]complex128, m)
	backing := make([]complex128, m*n)
	for i := range full {
		full[i] = backing[i*n : (i+1)*n]
	}

	return &Plan{
		m:    m,
		n:    n,
		in:   in,
		out:  out,
		full: full,
	}, nil
}

// HalfWidth is the number of stored columns of a half spectrum with n columns.
func HalfWidth(n int) int {
	return n/2 + 1
}

// Execute runs the transform from the plan's input buffer into its output buffer.
func (p *Plan) Execute() {
	m, n := p.m, p.n
	hw := HalfWidth(n)

	// Rebuild the full spectrum from Hermitian symmetry: F(i, j) = conj(F(-i, -j)).
	for i, row := range p.full {
		copy(row[:hw], p.in[i*hw:(i+1)*hw])
		mirror := ((m - i) % m) * hw
		for j := hw; j < n; j++ {
			row[j] = cmplx.Conj(p.in[mirror+n-j])
		}
	}

	res := fft.IFFT2(p.full)

	// The library divides its inverse by the element count.
	scale := float64(m * n)
	for i, row := range res {
		out := p.out[i*n : (i+1)*n]
		for j, v := range row {
			out[j] = real(v) * scale
		}
	}
}

// Destroy releases the plan. The bound buffers are left to their owner.
func (p *Plan) Destroy() {
	planMutex.Lock()
	defer planMutex.Unlock()

	p.full = nil
	p.in = nil
	p.out = nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}
