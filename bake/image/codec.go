// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package image

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Ext is the file extension of encoded images.
const Ext = ".ocf"

var magic = [4]byte{'O', 'C', 'F', '1'}

// maxPixels bounds decoded images so a corrupt header can't exhaust memory.
const maxPixels = 1 << 26

// ErrFormat is returned when decoding something that isn't an encoded image.
var ErrFormat = errors.New("image: not an ocf image")

// Encode writes b as a magic header, little endian uint32 width and height, then
// every float32 component in Pix order.
func Encode(w io.Writer, b *Buffer) error {
	bw := bufio.NewWriter(w)

	var header [12]byte
	copy(header[:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:], uint32(b.Width))
	binary.LittleEndian.PutUint32(header[8:], uint32(b.Height))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var scratch [4]byte
	for _, f := range b.Pix {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f))
		if _, err := bw.Write(scratch[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Marshal encodes b into a new byte slice.
func Marshal(b *Buffer) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(12 + len(b.Pix)*4)
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an image written by Encode.
func Decode(r io.Reader) (*Buffer, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return nil, ErrFormat
	}

	width := int(binary.LittleEndian.Uint32(header[4:]))
	height := int(binary.LittleEndian.Uint32(header[8:]))
	if width < 1 || height < 1 || width*height > maxPixels {
		return nil, fmt.Errorf("%w: size %dx%d", ErrFormat, width, height)
	}

	b, err := New(width, height)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, len(b.Pix)*4)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: truncated pixels: %v", ErrFormat, err)
	}
	for i := range b.Pix {
		b.Pix[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return b, nil
}

// Unmarshal decodes an image from data.
func Unmarshal(data []byte) (*Buffer, error) {
	return Decode(bytes.NewReader(data))
}
