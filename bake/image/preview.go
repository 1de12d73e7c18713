// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package image

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/chewxy/math32"
	"golang.org/x/image/tiff"
)

// PreviewExt is the file extension of previews.
const PreviewExt = ".tiff"

// Preview renders one component of b as 16 bit grayscale, stretched so the
// smallest value is black and the largest white.
func Preview(b *Buffer, component int) (*image.Gray16, error) {
	if component < 0 || component >= Components {
		return nil, fmt.Errorf("image: invalid component %d", component)
	}

	lo, hi := math32.Inf(1), math32.Inf(-1)
	for i := component; i < len(b.Pix); i += Components {
		lo = math32.Min(lo, b.Pix[i])
		hi = math32.Max(hi, b.Pix[i])
	}
	scale := float32(0)
	if hi > lo {
		scale = 0xffff / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := (b.Pix[b.offset(x, y)+component]-lo)*scale + 0.5
			img.SetGray16(x, y, color.Gray16{Y: uint16(math32.Min(math32.Max(v, 0), 0xffff))})
		}
	}
	return img, nil
}

// WritePreview writes a deflate compressed TIFF of one component of b.
func WritePreview(w io.Writer, b *Buffer, component int) error {
	img, err := Preview(b, component)
	if err != nil {
		return err
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}
