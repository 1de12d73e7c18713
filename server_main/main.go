// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server_main streams a live ocean to websocket clients.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean"
	"github.com/SoftbearStudios/swell/stream"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

func main() {
	var (
		paramsPath     string
		port           int
		maxConnections int
		debug          bool
	)

	flag.StringVar(&paramsPath, "params", "", "ocean params JSON file (defaults if empty)")
	flag.IntVar(&port, "port", 8192, "http service port")
	flag.IntVar(&maxConnections, "max-connections", 64, "maximum number of inbound TCP connections")
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

	http.HandleFunc("/ws", stream.NewServer(o).ServeSocket)

	l, err := net.Listen("tcp", fmt.Sprint(":", port))
	if err != nil {
		logger.Log.Fatal("Listen", zap.Error(err))
	}
	defer l.Close()

	l = netutil.LimitListener(l, maxConnections)

	logger.Log.Info("Stream server started", zap.Int("port", port), zap.Int("m", params.M), zap.Int("n", params.N))
	logger.Log.Fatal("Serve", zap.Error(http.Serve(l, nil)))
}
