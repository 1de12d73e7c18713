// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ocean synthesizes a periodic ocean surface from a statistical wave spectrum.
//
// An Ocean is set up once from Params, advanced to an absolute time with Simulate,
// and then sampled (concurrently if desired) at grid or world positions.
package ocean

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean/rng"
	"github.com/SoftbearStudios/swell/ocean/task"
	"github.com/SoftbearStudios/swell/ocean/transform"
	"go.uber.org/zap"
)

var (
	// ErrAlloc means setup could not allocate the grid. The Ocean is left invalid but may be freed.
	ErrAlloc = errors.New("ocean: allocation failed")
	// ErrInvalid means the Ocean was never set up, failed setup, or was freed.
	ErrInvalid = errors.New("ocean: invalid state")
)

const (
	// MaxCells bounds M×N so a typo can't request an absurd grid.
	MaxCells = 1 << 24

	// minExtent replaces zero or negative physical sizes.
	minExtent = 0.001

	// flatHeight replaces the maximum height of a perfectly flat surface when normalizing.
	flatHeight = 0.00001

	// rowThreshold is the row count above which the spectrum update runs in parallel.
	rowThreshold = 16
)

// Ocean is the simulation state. Simulate and Init take the write lock;
// every sampling and export method takes the read lock.
type Ocean struct {
	mutex sync.RWMutex

	params   Params
	spectrum spectrumModel
	features features

	m, n, hw int
	lx, lz   float64

	kx []float64 // per row, standard FFT frequency order
	kz []float64 // per column
	k  []float64 // |k| over the half spectrum, m × hw

	arena *arena
	pool  *task.Pool

	normalY         float64
	normalizeFactor float64
	valid           bool
}

// New creates and sets up an Ocean.
func New(params Params) (*Ocean, error) {
	o := &Ocean{}
	if err := o.Init(params); err != nil {
		return o, err
	}
	return o, nil
}

// Init (re)initializes the Ocean for params, releasing any previous grid first.
// On error the Ocean is invalid but safe to Free or Init again.
func (o *Ocean) Init(params Params) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.free()

	if params.M < 2 || params.N < 2 || params.M%2 != 0 || params.N%2 != 0 {
		return fmt.Errorf("%w: grid %dx%d must be even and at least 2", ErrInvalid, params.M, params.N)
	}
	if params.M*params.N > MaxCells || params.M*params.N/params.N != params.M {
		return fmt.Errorf("%w: grid %dx%d exceeds %d cells", ErrAlloc, params.M, params.N, MaxCells)
	}

	o.params = params
	o.m, o.n = params.M, params.N
	o.hw = transform.HalfWidth(params.N)
	o.lx = math.Max(params.SizeX, minExtent)
	o.lz = math.Max(params.SizeZ, minExtent)
	o.spectrum = newSpectrumModel(&params)
	o.features = features{
		height:   params.Height,
		chop:     params.Choppy,
		normals:  params.Normals,
		jacobian: params.Jacobian,
		spray:    params.Spray,
	}
	o.pool = task.Default()

	a, err := newArena(o.m, o.n, o.features)
	if err != nil {
		logger.Log.Warn("Ocean setup failed",
			zap.Int("m", o.m),
			zap.Int("n", o.n),
			zap.Error(err))
		return err
	}
	o.arena = a

	o.initWavenumbers()
	o.initSpectrum()

	o.normalizeFactor = 1
	if o.features.height {
		if err := o.simulate(0, 1, 0); err != nil {
			logger.Log.Warn("Ocean normalization failed", zap.Error(err))
			o.free()
			return err
		}
		maxHeight := 0.0
		for _, h := range o.arena.fields[chanHeight] {
			maxHeight = math.Max(maxHeight, math.Abs(h))
		}
		if maxHeight == 0 {
			maxHeight = flatHeight
		}
		o.normalizeFactor = 1 / maxHeight
	}

	o.valid = true

	logger.Log.Debug("Ocean initialized",
		zap.Int("m", o.m),
		zap.Int("n", o.n),
		zap.Stringer("spectrum", o.params.Spectrum),
		zap.Int64("seed", o.params.Seed),
		zap.Float64("normalizeFactor", o.normalizeFactor))

	return nil
}

// initWavenumbers fills kx, kz and the |k| table of the half spectrum.
func (o *Ocean) initWavenumbers() {
	o.kx = wavenumbers(o.m, o.lx)
	o.kz = wavenumbers(o.n, o.lz)

	o.k = make([]float64, o.m*o.hw)
	for i := 0; i < o.m; i++ {
		for j := 0; j < o.hw; j++ {
			o.k[i*o.hw+j] = math.Hypot(o.kx[i], o.kz[j])
		}
	}
}

// wavenumbers returns 2π·f/length for FFT frequencies f = 0, 1, ..., size/2, -(size/2-1), ..., -1.
func wavenumbers(size int, length float64) []float64 {
	k := make([]float64, size)
	for i := range k {
		f := i
		if i > size/2 {
			f = i - size
		}
		k[i] = 2 * math.Pi * float64(f) / length
	}
	return k
}

// initSpectrum draws the initial random spectrum. Each cell is seeded from its
// quantized wavenumber so overlapping wavenumbers match across resolutions.
func (o *Ocean) initSpectrum() {
	a := o.arena
	g := rng.New(o.params.Seed)

	for i := 0; i < o.m; i++ {
		kx := o.kx[i]
		for j := 0; j < o.hw; j++ {
			kz := o.kz[j]

			hash := rng.HashInt2D(uint32(int32(kx*360)), uint32(int32(kz*360)))
			g.Seed(o.params.Seed + int64(hash))

			r := complex(g.Gaussian(), g.Gaussian())

			idx := i*o.hw + j
			a.h0[idx] = r * complex(math.Sqrt(o.spectrum.at(kx, kz)/2), 0)
			a.h0Minus[idx] = r * complex(math.Sqrt(o.spectrum.at(-kx, -kz)/2), 0)
		}
	}
}

// Free releases the grid. The Ocean is invalid until the next Init.
func (o *Ocean) Free() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.free()
}

func (o *Ocean) free() {
	o.arena.free()
	o.arena = nil
	o.kx, o.kz, o.k = nil, nil, nil
	o.valid = false
}

// IsValid reports whether the Ocean is set up and usable for simulation.
func (o *Ocean) IsValid() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.valid
}

// Params returns the parameters of the last Init.
func (o *Ocean) Params() Params {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.params
}

// Resolution returns the grid rows and columns.
func (o *Ocean) Resolution() (m, n int) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.m, o.n
}

// NormalizeFactor is the reciprocal of the maximum height at t = 0 and unit scale.
func (o *Ocean) NormalizeFactor() float64 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.normalizeFactor
}
