// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bake

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SoftbearStudios/swell/cloud/fs"
	"github.com/SoftbearStudios/swell/ocean"
	"github.com/chewxy/math32"
)

const size = 16

func testOcean(t *testing.T, params ocean.Params) *ocean.Ocean {
	t.Helper()
	params.M = size
	params.N = size
	params.WindSpeed = 5
	params.Seed = 42
	o, err := ocean.New(params)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(o.Free)
	return o
}

func testOptions(start, end int) Options {
	options := DefaultOptions()
	options.Start = start
	options.End = end
	options.FoamCoverage = 0.3
	options.FoamFade = 0.9
	return options
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func TestBake_Reopen(t *testing.T) {
	dir := t.TempDir()
	o := testOcean(t, ocean.DefaultParams())

	cache, err := NewCache(fs.NewDirFilesystem(dir), testOptions(1, 5))
	if err != nil {
		t.Fatal(err)
	}
	if err := Bake(context.Background(), o, cache, false, nil); err != nil {
		t.Fatal(err)
	}
	if !cache.Baked() {
		t.Error("Baked expected true after complete bake")
	}

	for _, prefix := range channelPrefixes {
		if !exists(dir, FileName(prefix, 3)) {
			t.Error("expected", FileName(prefix, 3), "to exist")
		}
	}

	reopened, err := OpenCache(fs.NewDirFilesystem(dir), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Free()
	if !reopened.Baked() {
		t.Error("OpenCache expected baked flag from manifest")
	}
	if options := reopened.Options(); options.Start != 1 || options.End != 5 {
		t.Error("OpenCache expected frames 1 to 5 got", options.Start, options.End)
	}
	if x, y := reopened.Resolution(); x != size || y != size {
		t.Error("OpenCache expected resolution", size, "got", x, y)
	}

	if err := o.Simulate(reopened.Time(3), 1, 1); err != nil {
		t.Fatal(err)
	}

	reopened.SimulateFrame(3)

	var live, cached, uv ocean.Result
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			o.SampleIJ(&live, i, j)
			cached.Foam = -1
			reopened.SampleIJ(&cached, 3, i, j)

			if cached.Foam < 0 || cached.Foam > 1 {
				t.Fatal("cached foam expected [0, 1] got", cached.Foam)
			}
			if !cached.Disp.ApproxEqualThreshold(live.Disp, 1e-6) {
				t.Fatal("cached displacement at", i, j, "expected", live.Disp, "got", cached.Disp)
			}
			if !cached.Normal.ApproxEqualThreshold(live.Normal, 1e-6) {
				t.Fatal("cached normal at", i, j, "expected", live.Normal, "got", cached.Normal)
			}

			reopened.SampleUV(&uv, 3, float64(i)/size, float64(j)/size)
			if uv.Disp != cached.Disp || uv.Foam != cached.Foam {
				t.Fatal("SampleUV at texel", i, j, "expected", cached.Disp, cached.Foam, "got", uv.Disp, uv.Foam)
			}
		}
	}
}

func TestBake_Cancel(t *testing.T) {
	dir := t.TempDir()
	o := testOcean(t, ocean.DefaultParams())

	cache, err := NewCache(fs.NewDirFilesystem(dir), testOptions(1, 10))
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	err = Bake(context.Background(), o, cache, false, func(fraction float64) bool {
		calls++
		if expected := float64(calls) / 10; math.Abs(fraction-expected) > 1e-12 {
			t.Error("progress expected", expected, "got", fraction)
		}
		return calls == 3
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatal("Bake expected ErrCancelled got", err)
	}
	if cache.Baked() {
		t.Error("Baked expected false after cancel")
	}

	for frame := 1; frame <= 10; frame++ {
		name := FileName(channelPrefixes[chanDisp], frame)
		if got, expected := exists(dir, name), frame <= 3; got != expected {
			t.Error(name, "exists expected", expected, "got", got)
		}
	}
	if !exists(dir, ManifestName) {
		t.Error("cancelled bake expected an unbaked manifest")
	}

	reopened, err := OpenCache(fs.NewDirFilesystem(dir), testOptions(1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Baked() {
		t.Error("OpenCache of partial bake expected baked false")
	}

	res := ocean.Result{Foam: 0.5}
	res.Disp[1] = 100
	reopened.SampleIJ(&res, 7, 1, 1)
	if res.Foam != 0.5 || res.Disp[1] != 100 {
		t.Error("sampling unbaked frame expected untouched result got", res)
	}
	reopened.SampleIJ(&res, 2, 1, 1)
	if res.Disp[1] == 100 {
		t.Error("sampling baked frame expected displacement")
	}
}

func TestBake_RebakeCancelled(t *testing.T) {
	dir := t.TempDir()
	o := testOcean(t, ocean.DefaultParams())

	cache, err := NewCache(fs.NewDirFilesystem(dir), testOptions(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := Bake(context.Background(), o, cache, false, nil); err != nil {
		t.Fatal(err)
	}

	params := o.Params()
	params.Seed = 7
	other, err := ocean.New(params)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Free()

	again, err := NewCache(fs.NewDirFilesystem(dir), testOptions(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	err = Bake(context.Background(), other, again, false, func(float64) bool { return true })
	if !errors.Is(err, ErrCancelled) {
		t.Fatal("Bake expected ErrCancelled got", err)
	}

	reopened, err := OpenCache(fs.NewDirFilesystem(dir), testOptions(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Free()
	if reopened.Baked() {
		t.Error("OpenCache after cancelled re-bake expected baked false")
	}

	m, err := readManifest(fs.NewDirFilesystem(dir))
	if err != nil {
		t.Fatal(err)
	}
	if m.Baked || m.Params.Seed != 7 {
		t.Error("manifest expected unbaked seed 7 got", m.Baked, m.Params.Seed)
	}
}

func TestBake_FoamBlend(t *testing.T) {
	o := testOcean(t, ocean.DefaultParams())
	options := testOptions(1, 2)

	cache, err := NewCache(fs.NewDirFilesystem(t.TempDir()), options)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Free()
	if err := Bake(context.Background(), o, cache, false, nil); err != nil {
		t.Fatal(err)
	}

	coverage := float32(options.FoamCoverage)
	fade := float32(options.FoamFade)

	first := make([]float32, size*size)
	if err := o.Simulate(cache.Time(1), options.WaveScale, options.Choppiness); err != nil {
		t.Fatal(err)
	}
	var live, cached ocean.Result
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			o.SampleIJ(&live, i, j)
			cache.SampleIJ(&cached, 1, i, j)

			expected := ocean.FoamFromJMinus(live.JMinus, coverage)
			if math32.Abs(cached.Foam-expected) > 1e-6 {
				t.Fatal("frame 1 foam at", i, j, "expected", expected, "got", cached.Foam)
			}
			first[i*size+j] = cached.Foam
		}
	}

	if err := o.Simulate(cache.Time(2), options.WaveScale, options.Choppiness); err != nil {
		t.Fatal(err)
	}
	carried := false
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			o.SampleIJ(&live, i, j)
			cache.SampleIJ(&cached, 2, i, j)

			pr := first[i*size+j]
			directional := 0.75 + 0.25*(1-math32.Min(math32.Max(live.EMinus[2], 0), 1))
			fresh := ocean.FoamFromJMinus(live.JMinus, coverage)
			expected := math32.Min(1, pr*pr*fade*directional+fresh)
			if math32.Abs(cached.Foam-expected) > 1e-5 {
				t.Fatal("frame 2 foam at", i, j, "expected", expected, "got", cached.Foam)
			}
			if pr > 0 && cached.Foam > fresh && fresh < 1 {
				carried = true
			}
		}
	}
	if !carried {
		t.Error("frame 2 expected foam carried over from frame 1")
	}
}

func TestBake_Context(t *testing.T) {
	o := testOcean(t, ocean.DefaultParams())
	cache, err := NewCache(fs.NewDirFilesystem(t.TempDir()), testOptions(1, 3))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = Bake(ctx, o, cache, false, nil)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Error("Bake with cancelled context expected ErrCancelled and context.Canceled got", err)
	}
}

func TestBake_Features(t *testing.T) {
	dir := t.TempDir()
	params := ocean.DefaultParams()
	params.Normals = false
	params.Spray = false
	o := testOcean(t, params)

	cache, err := NewCache(fs.NewDirFilesystem(dir), testOptions(4, 5))
	if err != nil {
		t.Fatal(err)
	}
	if err := Bake(context.Background(), o, cache, true, nil); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"disp_0004.ocf", "foam_0005.ocf", "height_0004.tiff"} {
		if !exists(dir, name) {
			t.Error("expected", name, "to exist")
		}
	}
	for _, name := range []string{"normal_0004.ocf", "spray_0004.ocf", "spray_inverse_0005.ocf"} {
		if exists(dir, name) {
			t.Error("expected", name, "not to exist")
		}
	}

	res := ocean.Result{}
	res.Normal[0] = 7
	cache.SampleUV(&res, 4, 0.3, 0.3)
	if res.Normal[0] != 7 {
		t.Error("missing normal channel expected untouched normal got", res.Normal)
	}
}

func TestCache_Clamp(t *testing.T) {
	o := testOcean(t, ocean.DefaultParams())
	cache, err := NewCache(fs.NewDirFilesystem(t.TempDir()), testOptions(2, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := Bake(context.Background(), o, cache, false, nil); err != nil {
		t.Fatal(err)
	}

	var first, before, last, after ocean.Result
	cache.SampleIJ(&first, 2, 5, 6)
	cache.SampleIJ(&before, -10, 5, 6)
	cache.SampleIJ(&last, 4, 5, 6)
	cache.SampleIJ(&after, 99, 5, 6)

	if first != before {
		t.Error("frame before range expected first frame", first, "got", before)
	}
	if last != after {
		t.Error("frame after range expected last frame", last, "got", after)
	}
	if cache.Time(99) != cache.Time(4) {
		t.Error("Time expected clamp to last frame")
	}

	cache.Free()
	res := ocean.Result{Foam: 0.25}
	cache.SampleIJ(&res, 3, 0, 0)
	if res.Foam != 0.25 {
		t.Error("SampleIJ after Free expected untouched result got", res.Foam)
	}
	if err := Bake(context.Background(), o, cache, false, nil); err == nil {
		t.Error("Bake into freed cache expected error")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	filesystem := fs.NewDirFilesystem(dir)

	err := writeManifest(filesystem, &manifest{
		Options:     testOptions(1, 2),
		Params:      ocean.DefaultParams(),
		ResolutionX: 8,
		ResolutionY: 4,
		Times:       []float64{0.5, 1},
		Baked:       true,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"") {
		t.Error("manifest expected two space indent got", string(data[:min(len(data), 16)]))
	}

	m, err := readManifest(filesystem)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Baked || m.ResolutionX != 8 || m.ResolutionY != 4 || len(m.Times) != 2 {
		t.Error("readManifest expected baked 8x4 with 2 times got", m.Baked, m.ResolutionX, m.ResolutionY, len(m.Times))
	}
}

func TestNewCache_EmptyRange(t *testing.T) {
	if _, err := NewCache(fs.NewDirFilesystem(t.TempDir()), testOptions(5, 4)); err == nil {
		t.Error("NewCache with end before start expected error")
	}
}

func TestFileName(t *testing.T) {
	if name := FileName("spray_inverse_", 12); name != "spray_inverse_0012.ocf" {
		t.Error("FileName expected spray_inverse_0012.ocf got", name)
	}
	if name := PreviewName(3); name != "height_0003.tiff" {
		t.Error("PreviewName expected height_0003.tiff got", name)
	}
}
