// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"math"
	"sync"
)

// Export is a copy of an internal array, laid out row major with Components
// interleaved values per element. Call Release when done with it.
type Export struct {
	Data       []float32 `json:"data"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Components int       `json:"components"`
}

var exportPool = sync.Pool{
	New: func() interface{} {
		return &Export{
			Data: make([]float32, 0, 4096),
		}
	},
}

func newExport(width, height, components int) *Export {
	e := exportPool.Get().(*Export)
	size := width * height * components
	if cap(e.Data) < size {
		e.Data = make([]float32, size)
	}
	e.Data = e.Data[:size]
	e.Width = width
	e.Height = height
	e.Components = components
	return e
}

// Release returns the buffer for reuse. The Export must not be used afterwards.
func (e *Export) Release() {
	*e = Export{
		Data: e.Data[:0],
	}
	exportPool.Put(e)
}

// ExportWavenumbers exports (kx, kz, |k|) over the half spectrum (width N/2+1, height M).
func (o *Ocean) ExportWavenumbers() (*Export, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return nil, ErrInvalid
	}

	e := newExport(o.hw, o.m, 3)
	for i := 0; i < o.m; i++ {
		for j := 0; j < o.hw; j++ {
			idx := i*o.hw + j
			d := e.Data[idx*3 : idx*3+3]
			d[0] = float32(o.kx[i])
			d[1] = float32(o.kz[j])
			d[2] = float32(o.k[idx])
		}
	}
	return e, nil
}

// ExportSpectrum exports the initial spectrum as (Re h0, Im h0, Re h0-, Im h0-) over the half spectrum.
func (o *Ocean) ExportSpectrum() (*Export, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return nil, ErrInvalid
	}

	a := o.arena
	e := newExport(o.hw, o.m, 4)
	for idx := range a.h0 {
		d := e.Data[idx*4 : idx*4+4]
		d[0] = float32(real(a.h0[idx]))
		d[1] = float32(imag(a.h0[idx]))
		d[2] = float32(real(a.h0Minus[idx]))
		d[3] = float32(imag(a.h0Minus[idx]))
	}
	return e, nil
}

// ExportDisplacement exports (x, y, z) displacement per cell (width N, height M).
// Disabled channels export as 0.
func (o *Ocean) ExportDisplacement() (*Export, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return nil, ErrInvalid
	}

	fields := &o.arena.fields
	e := newExport(o.n, o.m, 3)
	for idx := 0; idx < o.m*o.n; idx++ {
		d := e.Data[idx*3 : idx*3+3]
		d[0] = valueAt(fields[chanDispX], idx)
		d[1] = valueAt(fields[chanHeight], idx)
		d[2] = valueAt(fields[chanDispZ], idx)
	}
	return e, nil
}

// ExportNormals exports unit normals per cell (width N, height M).
// Without the normals feature every normal points straight up.
func (o *Ocean) ExportNormals() (*Export, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.valid {
		return nil, ErrInvalid
	}

	fields := &o.arena.fields
	e := newExport(o.n, o.m, 3)
	for idx := 0; idx < o.m*o.n; idx++ {
		d := e.Data[idx*3 : idx*3+3]
		if !o.features.normals {
			d[0], d[1], d[2] = 0, 1, 0
			continue
		}
		x, y, z := fields[chanNormalX][idx], o.normalY, fields[chanNormalZ][idx]
		l := math.Sqrt(x*x + y*y + z*z)
		d[0] = float32(x / l)
		d[1] = float32(y / l)
		d[2] = float32(z / l)
	}
	return e, nil
}

func valueAt(field []float64, idx int) float32 {
	if field == nil {
		return 0
	}
	return float32(field[idx])
}
