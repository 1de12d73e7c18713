// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SoftbearStudios/swell/bake/image"
	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean"
	"github.com/SoftbearStudios/swell/ocean/task"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// ErrCancelled is returned by Bake when the progress callback or the context stops it.
// Frames written before that stay on the filesystem.
var ErrCancelled = errors.New("bake: cancelled")

// Progress is called after every frame with the fraction of frames done.
// Returning true cancels the bake.
type Progress func(fraction float64) (cancel bool)

// rowThreshold is the texel row count above which a frame is sampled in parallel.
const rowThreshold = 16

// PreviewName is the name of the height preview of frame.
func PreviewName(frame int) string {
	return fmt.Sprintf("height_%04d%s", frame, image.PreviewExt)
}

// Bake simulates every frame of c in order and writes its images through the cache's
// filesystem. Foam accumulates from one frame to the next, so frames are never baked
// out of order. If previews is set, a height preview is written per frame too.
func Bake(ctx context.Context, o *ocean.Ocean, c *Cache, previews bool, progress Progress) error {
	if !o.IsValid() {
		return ocean.ErrInvalid
	}

	params := o.Params()
	m, n := o.Resolution()
	options := c.options

	c.mutex.Lock()
	if c.frames == nil {
		c.mutex.Unlock()
		return errors.New("bake: cache was freed")
	}
	c.resolution = [2]int{m, n}
	times := append([]float64(nil), c.times...)
	c.mutex.Unlock()

	c.baked.Store(false)

	// A manifest left by an earlier bake into the same place must not outlive this one.
	record := &manifest{
		Options:     options,
		Params:      params,
		ResolutionX: m,
		ResolutionY: n,
		Times:       times,
	}
	if err := writeManifest(c.fs, record); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	b := baker{
		o:       o,
		m:       m,
		n:       n,
		options: options,
		foam:    params.Jacobian,
		spray:   params.Spray && params.Jacobian,
		normals: params.Normals,
	}

	started := time.Now()
	var previous *frameImages

	for i, t := range times {
		frame := options.Start + i

		if err := ctx.Err(); err != nil {
			logger.Log.Info("Bake interrupted", zap.Int("frame", frame), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		if err := o.Simulate(t, options.WaveScale, options.Choppiness); err != nil {
			return fmt.Errorf("simulating frame %d: %w", frame, err)
		}

		images, err := b.frame(previous)
		if err != nil {
			return fmt.Errorf("baking frame %d: %w", frame, err)
		}
		if err := c.write(frame, images, previews); err != nil {
			logger.Log.Warn("Bake write failed", zap.Int("frame", frame), zap.Error(err))
			return err
		}
		c.store(frame, images)
		previous = images

		fraction := float64(i+1) / float64(len(times))
		logger.Log.Debug("Baked frame",
			zap.Int("frame", frame),
			zap.Float64("time", t),
			zap.Float64("progress", fraction))

		if progress != nil && progress(fraction) {
			logger.Log.Info("Bake cancelled", zap.Int("frame", frame))
			return ErrCancelled
		}
	}

	record.Baked = true
	if err := writeManifest(c.fs, record); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	c.baked.Store(true)

	logger.Log.Info("Bake finished",
		zap.Int("frames", len(times)),
		zap.Stringer("fs", c.fs),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

// baker samples one simulated frame into images.
type baker struct {
	o       *ocean.Ocean
	m, n    int
	options Options

	foam, spray, normals bool
}

func (b *baker) frame(previous *frameImages) (*frameImages, error) {
	f := &frameImages{}

	var err error
	alloc := func(ch channel) {
		if err == nil {
			f.images[ch], err = image.New(b.m, b.n)
		}
	}
	alloc(chanDisp)
	if b.foam {
		alloc(chanFoam)
	}
	if b.normals {
		alloc(chanNormal)
	}
	if b.spray {
		alloc(chanSpray)
		alloc(chanSprayInverse)
	}
	if err != nil {
		return nil, err
	}

	var prevFoam *image.Buffer
	if previous != nil {
		prevFoam = previous.images[chanFoam]
	}

	coverage := float32(b.options.FoamCoverage)
	fade := float32(b.options.FoamFade)

	task.ParallelFor(b.m, rowThreshold, func(x int) {
		var res ocean.Result
		for y := 0; y < b.n; y++ {
			b.o.SampleIJ(&res, x, y)

			f.images[chanDisp].SetRGB(x, y, res.Disp[0], res.Disp[1], res.Disp[2])

			if img := f.images[chanFoam]; img != nil {
				foam := ocean.FoamFromJMinus(res.JMinus, coverage)
				if prevFoam != nil {
					pr, _, _, _ := prevFoam.At(x, y)
					directional := 0.75 + 0.25*(1-clamp01(res.EMinus[2]))
					foam = math32.Min(1, pr*pr*fade*directional+foam)
				}
				img.SetRGB(x, y, foam, foam, foam)
			}

			if img := f.images[chanNormal]; img != nil {
				img.SetRGB(x, y, res.Normal[0], res.Normal[1], res.Normal[2])
			}

			if img := f.images[chanSpray]; img != nil {
				img.SetRGB(x, y, res.EPlus[0], res.EPlus[1], res.EPlus[2])
				f.images[chanSprayInverse].SetRGB(x, y, res.EMinus[0], res.EMinus[1], res.EMinus[2])
			}
		}
	})

	return f, nil
}

// write stores every image of a frame, uploading channels concurrently.
func (c *Cache) write(frame int, f *frameImages, previews bool) error {
	group := task.Default().NewGroup()

	for ch, img := range f.images {
		if img == nil {
			continue
		}
		img := img
		name := channel(ch).fileName(frame)
		group.SubmitErr(func() error {
			data, err := image.Marshal(img)
			if err != nil {
				return err
			}
			return c.fs.WriteFile(name, data)
		})
	}

	if previews {
		disp := f.images[chanDisp]
		group.SubmitErr(func() error {
			var buf bytes.Buffer
			if err := image.WritePreview(&buf, disp, 1); err != nil {
				return err
			}
			return c.fs.WriteFile(PreviewName(frame), buf.Bytes())
		})
	}

	return group.Wait()
}

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
