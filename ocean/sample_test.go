// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func simulated(t *testing.T, size int) *Ocean {
	t.Helper()
	o := mustNew(t, testParams(size))
	if err := o.Simulate(3.25, 1, 1); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestOcean_SampleUV_Periodic(t *testing.T) {
	o := simulated(t, 16)

	var a, b Result
	for _, uv := range [][2]float64{{0.1, 0.2}, {0.37, 0.91}, {0.5, 0.5}, {0.99, 0.01}} {
		o.SampleUV(&a, uv[0], uv[1])
		o.SampleUV(&b, uv[0]+1, uv[1]-1)
		if !a.Disp.ApproxEqualThreshold(b.Disp, 1e-4) {
			t.Error("SampleUV", uv, "expected", a.Disp, "got", b.Disp)
		}

		o.SampleUVCatmullRom(&a, uv[0], uv[1])
		o.SampleUVCatmullRom(&b, uv[0]-2, uv[1]+3)
		if !a.Disp.ApproxEqualThreshold(b.Disp, 1e-4) {
			t.Error("SampleUVCatmullRom", uv, "expected", a.Disp, "got", b.Disp)
		}
	}
}

func TestOcean_SampleIJ_Periodic(t *testing.T) {
	o := simulated(t, 16)

	var a, b Result
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			o.SampleIJ(&a, i, j)
			o.SampleIJ(&b, i+16, j+32)
			if a != b {
				t.Fatal("SampleIJ", i, j, "expected", a, "got", b)
			}
		}
	}
}

func TestOcean_SampleIJ_NegativeFolds(t *testing.T) {
	o := simulated(t, 16)

	var a, b Result
	o.SampleIJ(&a, -1, -3)
	o.SampleIJ(&b, 1, 3)
	if a != b {
		t.Error("SampleIJ(-1, -3) expected cell (1, 3)", b, "got", a)
	}
}

func TestOcean_Sample_Vertices(t *testing.T) {
	const size = 16
	o := simulated(t, size)

	var raw, bilinear, catmull Result
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			u := float64(i) / size
			v := float64(j) / size

			o.SampleIJ(&raw, i, j)
			o.SampleUV(&bilinear, u, v)
			o.SampleUVCatmullRom(&catmull, u, v)

			if bilinear.Disp != raw.Disp {
				t.Error("SampleUV at vertex", i, j, "expected", raw.Disp, "got", bilinear.Disp)
			}
			if catmull.Disp != raw.Disp {
				t.Error("SampleUVCatmullRom at vertex", i, j, "expected", raw.Disp, "got", catmull.Disp)
			}
			if bilinear.JMinus != raw.JMinus || catmull.JPlus != raw.JPlus {
				t.Error("curvature at vertex", i, j, "expected", raw.JMinus, raw.JPlus, "got", bilinear.JMinus, catmull.JPlus)
			}
		}
	}
}

func TestOcean_SampleXZ(t *testing.T) {
	o := simulated(t, 16)
	lx, lz := o.Size()

	var a, b Result
	o.SampleXZ(&a, 0.3*lx, 0.6*lz)
	o.SampleUV(&b, 0.3, 0.6)
	if !a.Disp.ApproxEqualThreshold(b.Disp, 1e-5) {
		t.Error("SampleXZ expected", b.Disp, "got", a.Disp)
	}

	o.SampleXZCatmullRom(&a, -lx, 2*lz)
	o.SampleUVCatmullRom(&b, 0, 0)
	if !a.Disp.ApproxEqualThreshold(b.Disp, 1e-5) {
		t.Error("SampleXZCatmullRom expected", b.Disp, "got", a.Disp)
	}
}

func TestOcean_SampleIJ_Normal(t *testing.T) {
	o := simulated(t, 16)

	var res Result
	for i := 0; i < 16; i++ {
		o.SampleIJ(&res, i, 15-i)
		if l := res.Normal.Len(); math.Abs(float64(l)-1) > 1e-5 {
			t.Error("SampleIJ normal expected unit length got", l)
		}
		if res.Normal.Dot(mgl32.Vec3{0, 1, 0}) <= 0 {
			t.Error("SampleIJ normal expected to point up got", res.Normal)
		}
	}
}

func TestCatmullRom(t *testing.T) {
	if v := catmullRom(0, 1, 2, 3, 0.5); v != 1.5 {
		t.Error("catmullRom on a line expected 1.5 got", v)
	}
	if v := catmullRom(4, 4, 4, 4, 0.3); math.Abs(v-4) > 1e-12 {
		t.Error("catmullRom of a constant expected 4 got", v)
	}
}

func TestWrapUnit(t *testing.T) {
	for _, c := range [][2]float64{{0, 0}, {0.25, 0.25}, {1, 0}, {-0.25, 0.75}, {3.5, 0.5}, {-1, 0}} {
		if v := wrapUnit(c[0]); math.Abs(v-c[1]) > 1e-12 {
			t.Error("wrapUnit", c[0], "expected", c[1], "got", v)
		}
	}
}
