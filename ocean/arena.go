// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"fmt"

	"github.com/SoftbearStudios/swell/ocean/transform"
)

// channel indexes the real valued output fields.
type channel int

const (
	chanHeight channel = iota
	chanDispX
	chanDispZ
	chanJxx
	chanJzz
	chanJxz
	chanNormalX
	chanNormalZ
	channelCount
)

var channelNames = [channelCount]string{
	chanHeight:  "height",
	chanDispX:   "disp_x",
	chanDispZ:   "disp_z",
	chanJxx:     "jxx",
	chanJzz:     "jzz",
	chanJxz:     "jxz",
	chanNormalX: "normal_x",
	chanNormalZ: "normal_z",
}

func (c channel) String() string {
	return channelNames[c]
}

// features is the set of enabled output groups.
type features struct {
	height, chop, normals, jacobian, spray bool
}

func (f features) has(c channel) bool {
	switch c {
	case chanHeight:
		return f.height
	case chanDispX, chanDispZ:
		return f.chop
	case chanJxx, chanJzz, chanJxz:
		return f.jacobian
	case chanNormalX, chanNormalZ:
		return f.normals
	}
	return false
}

// arena owns every grid sized buffer of an Ocean in two contiguous allocations.
// Disabled channels have nil views.
type arena struct {
	reals     []float64
	complexes []complex128

	h0      []complex128 // m × hw
	h0Minus []complex128
	htilde  []complex128

	fields [channelCount][]float64      // m × n transform outputs
	inputs [channelCount][]complex128   // m × hw transform inputs
	plans  [channelCount]*transform.Plan
}

// newArena allocates buffers and plans for the enabled channels. On failure
// everything already allocated is released before returning.
func newArena(m, n int, f features) (a *arena, err error) {
	hw := transform.HalfWidth(n)
	cells := m * n
	halfCells := m * hw

	enabled := 0
	for c := channel(0); c < channelCount; c++ {
		if f.has(c) {
			enabled++
		}
	}

	a = &arena{}
	defer func() {
		if r := recover(); r != nil {
			a.free()
			a = nil
			err = fmt.Errorf("%w: %v", ErrAlloc, r)
		} else if err != nil {
			a.free()
			a = nil
		}
	}()

	a.reals = make([]float64, enabled*cells)
	a.complexes = make([]complex128, (3+enabled)*halfCells)

	a.h0 = a.complexes[0*halfCells : 1*halfCells]
	a.h0Minus = a.complexes[1*halfCells : 2*halfCells]
	a.htilde = a.complexes[2*halfCells : 3*halfCells]

	slot := 0
	for c := channel(0); c < channelCount; c++ {
		if !f.has(c) {
			continue
		}
		a.fields[c] = a.reals[slot*cells : (slot+1)*cells]
		a.inputs[c] = a.complexes[(3+slot)*halfCells : (4+slot)*halfCells]
		slot++

		a.plans[c], err = transform.NewPlan(m, n, a.inputs[c], a.fields[c])
		if err != nil {
			return a, fmt.Errorf("%w: %s plan: %v", ErrAlloc, c, err)
		}
	}

	return a, nil
}

func (a *arena) free() {
	if a == nil {
		return
	}
	for c, plan := range a.plans {
		if plan != nil {
			plan.Destroy()
			a.plans[c] = nil
		}
	}
	*a = arena{}
}
