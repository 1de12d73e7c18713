// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean/task"
	"go.uber.org/zap"
)

// Simulate evaluates every enabled output field at absolute time t. The height is
// scaled by scale times the normalization factor; chop scales horizontal displacement
// and curvature. Calling it twice with the same arguments gives identical fields.
func (o *Ocean) Simulate(t, scale, chop float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("ocean: non-finite time %v", t)
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.valid {
		return ErrInvalid
	}

	if err := o.simulate(t, scale, chop); err != nil {
		logger.Log.Warn("Ocean simulate failed", zap.Float64("time", t), zap.Error(err))
		return fmt.Errorf("ocean: simulating at %v: %w", t, err)
	}
	return nil
}

// simulate requires the write lock. A failed channel task leaves its fields stale.
func (o *Ocean) simulate(t, scale, chop float64) error {
	scale *= o.normalizeFactor

	a := o.arena
	hw := o.hw

	// h~(k, t) = h0(k)·e^(iωt) + conj(h0-(k))·e^(-iωt)
	task.ParallelFor(o.m, rowThreshold, func(i int) {
		for j := 0; j < hw; j++ {
			idx := i*hw + j
			e := cmplx.Rect(1, o.spectrum.omega(o.k[idx])*t)
			a.htilde[idx] = a.h0[idx]*e + cmplx.Conj(a.h0Minus[idx])*cmplx.Conj(e)
		}
	})

	group := o.pool.NewGroup()

	if o.features.height {
		group.Submit(func() {
			o.transformChannel(chanHeight, func(i, j, idx int) complex128 {
				return complex(scale, 0)
			})
		})
	}

	if o.features.chop {
		// -i·scale·chop·k̂ gives a Gerstner like horizontal shift.
		mul := complex(0, -scale*chop)
		group.Submit(func() {
			o.transformChannel(chanDispX, func(i, j, idx int) complex128 {
				return mul * complex(o.overK(o.kx[i], idx), 0)
			})
		})
		group.Submit(func() {
			o.transformChannel(chanDispZ, func(i, j, idx int) complex128 {
				return mul * complex(o.overK(o.kz[j], idx), 0)
			})
		})
	}

	if o.features.jacobian {
		group.Submit(func() {
			o.transformChannel(chanJxx, func(i, j, idx int) complex128 {
				return complex(-chop*o.overK(o.kx[i]*o.kx[i], idx), 0)
			})
			addScalar(a.fields[chanJxx], 1)
		})
		group.Submit(func() {
			o.transformChannel(chanJzz, func(i, j, idx int) complex128 {
				return complex(-chop*o.overK(o.kz[j]*o.kz[j], idx), 0)
			})
			addScalar(a.fields[chanJzz], 1)
		})
		group.Submit(func() {
			o.transformChannel(chanJxz, func(i, j, idx int) complex128 {
				return complex(-chop*o.overK(o.kx[i]*o.kz[j], idx), 0)
			})
		})
	}

	if o.features.normals {
		group.Submit(func() {
			o.transformChannel(chanNormalX, func(i, j, idx int) complex128 {
				return complex(0, -o.kx[i])
			})
		})
		group.Submit(func() {
			o.transformChannel(chanNormalZ, func(i, j, idx int) complex128 {
				return complex(0, -o.kz[j])
			})
		})
		if scale != 0 {
			o.normalY = 1 / scale
		} else {
			o.normalY = 1 / flatHeight
		}
	}

	return group.Wait()
}

// transformChannel fills the transform input of c with htilde times mul and runs its plan.
func (o *Ocean) transformChannel(c channel, mul func(i, j, idx int) complex128) {
	a := o.arena
	in := a.inputs[c]
	for i := 0; i < o.m; i++ {
		for j := 0; j < o.hw; j++ {
			idx := i*o.hw + j
			in[idx] = a.htilde[idx] * mul(i, j, idx)
		}
	}
	a.plans[c].Execute()
}

// overK divides v by |k| at idx, or returns 0 at the DC term.
func (o *Ocean) overK(v float64, idx int) float64 {
	k := o.k[idx]
	if k == 0 {
		return 0
	}
	return v / k
}

func addScalar(field []float64, v float64) {
	for i := range field {
		field[i] += v
	}
}
