// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bake writes simulated frames to a filesystem and plays them back.
package bake

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/SoftbearStudios/swell/bake/image"
	"github.com/SoftbearStudios/swell/cloud/fs"
	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean"
	"go.uber.org/zap"
)

// Options are constant across every frame of a bake.
type Options struct {
	Start        int     `json:"start"`
	End          int     `json:"end"`
	WaveScale    float64 `json:"wave_scale"`
	Choppiness   float64 `json:"choppiness"`
	FoamCoverage float64 `json:"foam_coverage"`
	FoamFade     float64 `json:"foam_fade"`
	FPS          float64 `json:"fps"`
	TimeScale    float64 `json:"time_scale"`
}

// DefaultOptions covers frames 1 to 250 at 24 fps.
func DefaultOptions() Options {
	return Options{
		Start:        1,
		End:          250,
		WaveScale:    1,
		Choppiness:   1,
		FoamCoverage: 0,
		FoamFade:     0.98,
		FPS:          24,
		TimeScale:    1,
	}
}

// Time returns the simulation time of frame.
func (o Options) Time(frame int) float64 {
	fps := o.FPS
	if fps <= 0 {
		fps = 24
	}
	return float64(frame) / fps * o.TimeScale
}

// channel is one kind of image written per frame.
type channel int

const (
	chanDisp channel = iota
	chanFoam
	chanNormal
	chanSpray
	chanSprayInverse
	channelCount
)

var channelPrefixes = [channelCount]string{
	chanDisp:         "disp_",
	chanFoam:         "foam_",
	chanNormal:       "normal_",
	chanSpray:        "spray_",
	chanSprayInverse: "spray_inverse_",
}

// FileName is the name of the image of channel prefix for frame, such as "foam_0012.ocf".
func FileName(prefix string, frame int) string {
	return fmt.Sprintf("%s%04d%s", prefix, frame, image.Ext)
}

func (c channel) fileName(frame int) string {
	return FileName(channelPrefixes[c], frame)
}

// frameImages holds the images of one frame. Channels that were never baked are nil.
type frameImages struct {
	images [channelCount]*image.Buffer
}

// Cache is a range of frames backed by a Filesystem. Frames load lazily on first access.
type Cache struct {
	fs      fs.Filesystem
	options Options

	// mutex guards the slices below against Free. Loading a frame additionally takes loadMutex.
	mutex     sync.RWMutex
	times     []float64
	frames    []atomic.Pointer[frameImages]
	loadMutex sync.Mutex

	resolution [2]int // texels per frame, 0 until baked or opened
	baked      atomic.Bool
}

// NewCache creates an empty cache for options.Start to options.End inclusive.
func NewCache(fs fs.Filesystem, options Options) (*Cache, error) {
	if options.End < options.Start {
		return nil, fmt.Errorf("bake: frame range %d to %d is empty", options.Start, options.End)
	}

	count := options.End - options.Start + 1
	c := &Cache{
		fs:      fs,
		options: options,
		times:   make([]float64, count),
		frames:  make([]atomic.Pointer[frameImages], count),
	}
	for i := range c.times {
		c.times[i] = options.Time(options.Start + i)
	}
	return c, nil
}

// OpenCache creates a cache, restoring options and the baked flag from the manifest of
// a finished bake if one exists. Otherwise it behaves like NewCache.
func OpenCache(fs fs.Filesystem, options Options) (*Cache, error) {
	manifest, err := readManifest(fs)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return NewCache(fs, options)
	}

	c, err := NewCache(fs, manifest.Options)
	if err != nil {
		return nil, err
	}
	if len(manifest.Times) == len(c.times) {
		copy(c.times, manifest.Times)
	}
	c.resolution = [2]int{manifest.ResolutionX, manifest.ResolutionY}
	c.baked.Store(manifest.Baked)
	return c, nil
}

// Options returns the options of the cache.
func (c *Cache) Options() Options {
	return c.options
}

// Baked reports whether a bake into this cache ran to completion.
func (c *Cache) Baked() bool {
	return c.baked.Load()
}

// Resolution returns the texel size of baked frames, or zeros if unknown.
func (c *Cache) Resolution() (x, y int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.resolution[0], c.resolution[1]
}

// Time returns the simulation time of frame, clamped to the range.
func (c *Cache) Time(frame int) float64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.times == nil {
		return 0
	}
	return c.times[c.index(frame)]
}

// Free drops every loaded image. The cache samples nothing afterwards.
func (c *Cache) Free() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.times = nil
	c.frames = nil
}

// index clamps frame into the range and returns its slot.
func (c *Cache) index(frame int) int {
	if frame < c.options.Start {
		frame = c.options.Start
	}
	if frame > c.options.End {
		frame = c.options.End
	}
	return frame - c.options.Start
}

// SimulateFrame makes sure frame is loaded, reading any of its images from the filesystem.
func (c *Cache) SimulateFrame(frame int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.frames != nil {
		c.frame(frame)
	}
}

// frame returns the loaded frame, loading it if needed. Requires the read lock.
func (c *Cache) frame(frame int) *frameImages {
	slot := &c.frames[c.index(frame)]
	if f := slot.Load(); f != nil {
		return f
	}

	c.loadMutex.Lock()
	defer c.loadMutex.Unlock()

	if f := slot.Load(); f != nil {
		return f
	}

	f := c.load(c.options.Start + c.index(frame))
	slot.Store(f)
	return f
}

func (c *Cache) load(frame int) *frameImages {
	f := &frameImages{}
	for ch := channel(0); ch < channelCount; ch++ {
		name := ch.fileName(frame)
		data, err := c.fs.ReadFile(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Log.Debug("Cache file missing", zap.String("name", name))
			} else {
				logger.Log.Warn("Cache file unreadable", zap.String("name", name), zap.Error(err))
			}
			continue
		}

		img, err := image.Unmarshal(data)
		if err != nil {
			logger.Log.Warn("Cache file corrupt", zap.String("name", name), zap.Error(err))
			continue
		}
		f.images[ch] = img
	}
	return f
}

// store replaces the images of a frame after baking it.
func (c *Cache) store(frame int, f *frameImages) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.frames != nil {
		c.frames[c.index(frame)].Store(f)
	}
}

// SampleUV bilinearly samples frame (clamped to the range) at normalized coordinates,
// u along the grid rows as in ocean.SampleUV. Fields of channels without an image are untouched.
func (c *Cache) SampleUV(res *ocean.Result, frame int, u, v float64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.frames == nil {
		return
	}

	f := c.frame(frame)
	uu, vv := float32(u), float32(v)

	if img := f.images[chanDisp]; img != nil {
		res.Disp[0], res.Disp[1], res.Disp[2], _ = img.Bilinear(uu, vv)
	}
	if img := f.images[chanFoam]; img != nil {
		res.Foam, _, _, _ = img.Bilinear(uu, vv)
	}
	if img := f.images[chanNormal]; img != nil {
		res.Normal[0], res.Normal[1], res.Normal[2], _ = img.Bilinear(uu, vv)
	}
	if img := f.images[chanSpray]; img != nil {
		res.EPlus[0], res.EPlus[1], res.EPlus[2], _ = img.Bilinear(uu, vv)
	}
	if img := f.images[chanSprayInverse]; img != nil {
		res.EMinus[0], res.EMinus[1], res.EMinus[2], _ = img.Bilinear(uu, vv)
	}
}

// SampleIJ reads texel (i, j) of frame. Indices fold like ocean.SampleIJ.
func (c *Cache) SampleIJ(res *ocean.Result, frame int, i, j int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.frames == nil {
		return
	}

	f := c.frame(frame)
	at := func(img *image.Buffer) (r, g, b float32) {
		x := absInt(i) % img.Width
		y := absInt(j) % img.Height
		r, g, b, _ = img.At(x, y)
		return
	}

	if img := f.images[chanDisp]; img != nil {
		res.Disp[0], res.Disp[1], res.Disp[2] = at(img)
	}
	if img := f.images[chanFoam]; img != nil {
		res.Foam, _, _ = at(img)
	}
	if img := f.images[chanNormal]; img != nil {
		res.Normal[0], res.Normal[1], res.Normal[2] = at(img)
	}
	if img := f.images[chanSpray]; img != nil {
		res.EPlus[0], res.EPlus[1], res.EPlus[2] = at(img)
	}
	if img := f.images[chanSprayInverse]; img != nil {
		res.EMinus[0], res.EMinus[1], res.EMinus[2] = at(img)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
