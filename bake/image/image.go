// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package image holds the float RGBA images a bake writes per frame and channel.
package image

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Components is the number of floats per pixel (RGBA).
const Components = 4

// Buffer is a row major float RGBA image. Pix[Components*(Width*y+x)] is the red
// component of pixel (x, y).
type Buffer struct {
	Width  int
	Height int
	Pix    []float32
}

// New allocates a zeroed width×height image.
func New(width, height int) (*Buffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image: invalid size %dx%d", width, height)
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*Components),
	}, nil
}

func (b *Buffer) offset(x, y int) int {
	return Components * (b.Width*y + x)
}

// At returns the RGBA value of pixel (x, y).
func (b *Buffer) At(x, y int) (r, g, bl, a float32) {
	o := b.offset(x, y)
	p := b.Pix[o : o+Components]
	return p[0], p[1], p[2], p[3]
}

// Set writes an RGBA pixel.
func (b *Buffer) Set(x, y int, r, g, bl, a float32) {
	o := b.offset(x, y)
	p := b.Pix[o : o+Components]
	p[0], p[1], p[2], p[3] = r, g, bl, a
}

// SetRGB writes an opaque pixel.
func (b *Buffer) SetRGB(x, y int, r, g, bl float32) {
	b.Set(x, y, r, g, bl, 1)
}

// Bilinear samples the image at normalized (u, v) with wraparound, u along the width.
func (b *Buffer) Bilinear(u, v float32) (r, g, bl, a float32) {
	fx := wrap(u) * float32(b.Width)
	fy := wrap(v) * float32(b.Height)

	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f

	x0 := int(x0f) % b.Width
	y0 := int(y0f) % b.Height
	x1 := (x0 + 1) % b.Width
	y1 := (y0 + 1) % b.Height

	p00 := b.Pix[b.offset(x0, y0):]
	p10 := b.Pix[b.offset(x1, y0):]
	p01 := b.Pix[b.offset(x0, y1):]
	p11 := b.Pix[b.offset(x1, y1):]

	var out [Components]float32
	for c := range out {
		out[c] = lerp(lerp(p00[c], p10[c], tx), lerp(p01[c], p11[c], tx), ty)
	}
	return out[0], out[1], out[2], out[3]
}

func wrap(v float32) float32 {
	v = math32.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
