// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import "math"

// SampleUV bilinearly samples the surface at normalized coordinates. u runs over
// the M rows and v over the N columns; both wrap with period 1.
func (o *Ocean) SampleUV(res *Result, u, v float64) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return
	}

	i0, j0, fx, fz := o.cell(u, v)
	i1 := (i0 + 1) % o.m
	j1 := (j0 + 1) % o.n

	o.fill(res, func(f []float64) float64 {
		return lerp(
			lerp(f[i0*o.n+j0], f[i1*o.n+j0], fx),
			lerp(f[i0*o.n+j1], f[i1*o.n+j1], fx),
			fz,
		)
	})
}

// SampleUVCatmullRom samples the surface with a Catmull-Rom spline through the surrounding 4×4 cells.
func (o *Ocean) SampleUVCatmullRom(res *Result, u, v float64) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return
	}

	i1, j1, fx, fz := o.cell(u, v)
	i0, i2, i3 := (i1+o.m-1)%o.m, (i1+1)%o.m, (i1+2)%o.m
	j0, j2, j3 := (j1+o.n-1)%o.n, (j1+1)%o.n, (j1+2)%o.n

	o.fill(res, func(f []float64) float64 {
		column := func(j int) float64 {
			return catmullRom(f[i0*o.n+j], f[i1*o.n+j], f[i2*o.n+j], f[i3*o.n+j], fx)
		}
		return catmullRom(column(j0), column(j1), column(j2), column(j3), fz)
	})
}

// SampleXZ bilinearly samples the surface at a world position.
func (o *Ocean) SampleXZ(res *Result, x, z float64) {
	lx, lz := o.Size()
	o.SampleUV(res, x/lx, z/lz)
}

// SampleXZCatmullRom samples the surface at a world position with Catmull-Rom interpolation.
func (o *Ocean) SampleXZCatmullRom(res *Result, x, z float64) {
	lx, lz := o.Size()
	o.SampleUVCatmullRom(res, x/lx, z/lz)
}

// SampleIJ reads grid cell (i, j) without interpolation and normalizes the normal.
//
// Negative indices are folded with abs before the modulo, so (-1, 0) reads cell (1, 0)
// rather than (M-1, 0). Baking only ever passes in range indices.
func (o *Ocean) SampleIJ(res *Result, i, j int) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return
	}

	i = absInt(i) % o.m
	j = absInt(j) % o.n
	idx := i*o.n + j

	o.fill(res, func(f []float64) float64 {
		return f[idx]
	})

	if o.features.normals {
		res.Normal = res.Normal.Normalize()
	}
}

// Size returns the physical extents of the grid.
func (o *Ocean) Size() (x, z float64) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.lx, o.lz
}

// cell maps normalized coordinates to the lower grid cell and the fractions within it.
func (o *Ocean) cell(u, v float64) (i, j int, fx, fz float64) {
	uu := wrapUnit(u) * float64(o.m)
	vv := wrapUnit(v) * float64(o.n)

	fi := math.Floor(uu)
	fj := math.Floor(vv)

	return int(fi) % o.m, int(fj) % o.n, uu - fi, vv - fj
}

// fill writes every enabled field into res using interp to read a value from a field.
// Requires the read lock.
func (o *Ocean) fill(res *Result, interp func(field []float64) float64) {
	fields := &o.arena.fields

	if o.features.height {
		res.Disp[1] = float32(interp(fields[chanHeight]))
	}

	if o.features.chop {
		res.Disp[0] = float32(interp(fields[chanDispX]))
		res.Disp[2] = float32(interp(fields[chanDispZ]))
	} else {
		res.Disp[0] = 0
		res.Disp[2] = 0
	}

	if o.features.normals {
		// The vertical component is uniform and never interpolated.
		res.Normal[0] = float32(interp(fields[chanNormalX]))
		res.Normal[1] = float32(o.normalY)
		res.Normal[2] = float32(interp(fields[chanNormalZ]))
	}

	if o.features.jacobian {
		Eigen(res, interp(fields[chanJxx]), interp(fields[chanJzz]), interp(fields[chanJxz]))
	}
}

// wrapUnit wraps v into [0, 1).
func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// catmullRom interpolates between p1 (t = 0) and p2 (t = 1).
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t*t +
		(-p0+3*p1-3*p2+p3)*t*t*t)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
