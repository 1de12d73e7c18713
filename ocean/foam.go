// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// foamSlope converts the smaller Jacobian eigenvalue into foam.
const foamSlope = -0.005

// Result is one sample of the surface. Fields of disabled outputs are left as the caller set them,
// except height and choppy displacement which read as 0 when disabled.
type Result struct {
	Disp   mgl32.Vec3
	Normal mgl32.Vec3
	Foam   float32

	JMinus float32
	JPlus  float32
	EMinus mgl32.Vec3 // principal direction of JMinus (spray inverse)
	EPlus  mgl32.Vec3 // principal direction of JPlus (spray)
}

// FoamFromJMinus maps the smaller curvature eigenvalue to foam coverage in [0, 1].
// Sharper troughs (more negative jminus) give more foam.
func FoamFromJMinus(jminus, coverage float32) float32 {
	return clamp32(jminus*foamSlope+coverage, 0, 1)
}

// Eigen decomposes the symmetric 2×2 Jacobian [[jxx, jxz], [jxz, jzz]] into res.
func Eigen(res *Result, jxx, jzz, jxz float64) {
	a := jxx + jzz
	b := math.Sqrt((jxx-jzz)*(jxx-jzz) + 4*jxz*jxz)

	jminus := 0.5 * (a - b)
	jplus := 0.5 * (a + b)
	res.JMinus = float32(jminus)
	res.JPlus = float32(jplus)

	if math.Abs(jxz) < 1e-12 {
		// Already diagonal: the principal directions are the axes.
		x := mgl32.Vec3{1, 0, 0}
		z := mgl32.Vec3{0, 0, 1}
		if jxx >= jzz {
			res.EPlus, res.EMinus = x, z
		} else {
			res.EPlus, res.EMinus = z, x
		}
		return
	}

	res.EPlus = eigenvector(jplus, jxx, jxz)
	res.EMinus = eigenvector(jminus, jxx, jxz)
}

// eigenvector returns the unit vector (1, 0, q)/|.| with q = (λ - jxx) / jxz.
func eigenvector(lambda, jxx, jxz float64) mgl32.Vec3 {
	q := (lambda - jxx) / jxz
	l := math.Sqrt(1 + q*q)
	return mgl32.Vec3{float32(1 / l), 0, float32(q / l)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
