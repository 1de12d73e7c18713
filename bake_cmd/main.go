// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command bake_cmd simulates a frame range and writes it to a directory or S3 bucket.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/SoftbearStudios/swell/bake"
	"github.com/SoftbearStudios/swell/cloud"
	"github.com/SoftbearStudios/swell/cloud/db"
	"github.com/SoftbearStudios/swell/cloud/fs"
	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean"
	"go.uber.org/zap"
)

func main() {
	var (
		paramsPath string
		out        string
		bucket     string
		region     string
		profile    string
		indexStage string
		name       string
		previews   bool
		debug      bool
	)

	options := bake.DefaultOptions()

	flag.StringVar(&paramsPath, "params", "", "ocean params JSON file (defaults if empty)")
	flag.StringVar(&out, "out", "bake", "output directory, or key prefix with -s3-bucket")
	flag.StringVar(&bucket, "s3-bucket", "", "write frames to this S3 bucket instead of a directory")
	flag.StringVar(&region, "region", "us-east-1", "AWS region")
	flag.StringVar(&profile, "profile", cloud.DefaultProfile, "AWS shared credentials profile")
	flag.StringVar(&indexStage, "index-stage", "", "record the bake in the DynamoDB index of this stage")
	flag.StringVar(&name, "name", "", "bake name in the index (defaults to the output base name)")
	flag.IntVar(&options.Start, "start", options.Start, "first frame")
	flag.IntVar(&options.End, "end", options.End, "last frame")
	flag.Float64Var(&options.FPS, "fps", options.FPS, "frames per second")
	flag.Float64Var(&options.TimeScale, "time-scale", options.TimeScale, "simulation seconds per second")
	flag.Float64Var(&options.WaveScale, "wave-scale", options.WaveScale, "height multiplier")
	flag.Float64Var(&options.Choppiness, "chop", options.Choppiness, "horizontal displacement multiplier")
	flag.Float64Var(&options.FoamCoverage, "foam-coverage", options.FoamCoverage, "foam bias")
	flag.Float64Var(&options.FoamFade, "foam-fade", options.FoamFade, "fraction of foam carried to the next frame")
	flag.BoolVar(&previews, "preview", false, "also write a TIFF height preview per frame")
	flag.BoolVar(&debug, "debug", false, "development logging")
	flag.Parse()

	if err := logger.Init(debug); err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	params := ocean.DefaultParams()
	if paramsPath != "" {
		f, err := os.Open(paramsPath)
		if err != nil {
			logger.Log.Fatal("Opening params", zap.Error(err))
		}
		params, err = ocean.LoadParams(f)
		_ = f.Close()
		if err != nil {
			logger.Log.Fatal("Loading params", zap.String("path", paramsPath), zap.Error(err))
		}
	}

	o, err := ocean.New(params)
	if err != nil {
		logger.Log.Fatal("Ocean setup", zap.Error(err))
	}
	defer o.Free()

	var (
		filesystem fs.Filesystem
		index      db.Index = db.NewMemoryIndex()
	)

	if bucket != "" || indexStage != "" {
		sess, err := cloud.NewSession(region, profile)
		if err != nil {
			logger.Log.Fatal("AWS session", zap.Error(err))
		}
		if bucket != "" {
			filesystem = fs.NewS3Filesystem(sess, bucket, out)
		}
		if indexStage != "" {
			index = db.NewDynamoDBIndex(sess, indexStage)
		}
	}
	if filesystem == nil {
		filesystem = fs.NewDirFilesystem(out)
	}

	cache, err := bake.NewCache(filesystem, options)
	if err != nil {
		logger.Log.Fatal("Cache", zap.Error(err))
	}
	defer cache.Free()

	if name == "" {
		name = filepath.Base(strings.TrimRight(out, "/"))
	}
	record := db.Bake{
		Name:     name,
		Location: filesystem.String(),
		Spectrum: params.Spectrum.String(),
		Seed:     params.Seed,
		Start:    options.Start,
		End:      options.End,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frames := options.End - options.Start + 1
	lastLog := time.Now()
	err = bake.Bake(ctx, o, cache, previews, func(fraction float64) bool {
		record.Frames = int(fraction*float64(frames) + 0.5)
		if time.Since(lastLog) > 5*time.Second {
			lastLog = time.Now()
			logger.Log.Info("Baking", zap.Int("frames", record.Frames), zap.Int("of", frames))
		}
		return false
	})

	record.Baked = cache.Baked()
	record.Updated = time.Now().UnixNano() / int64(time.Millisecond)
	if indexErr := index.UpdateBake(record); indexErr != nil {
		logger.Log.Warn("Index update failed", zap.Error(indexErr))
	}

	if errors.Is(err, bake.ErrCancelled) {
		logger.Log.Warn("Bake cancelled", zap.Int("frames", record.Frames))
		return
	}
	if err != nil {
		logger.Log.Fatal("Bake failed", zap.Error(err))
	}
}
