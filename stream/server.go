// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream serves simulated ocean textures over websockets, for renderers
// that draw the surface themselves.
package stream

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/SoftbearStudios/swell/logger"
	"github.com/SoftbearStudios/swell/ocean"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.Config{
	EscapeHTML:                    false,
	SortMapKeys:                   true,
	ObjectFieldMustBeSimpleString: true,
	CaseSensitive:                 true,
}.Froze()

// Channels that a Request may ask for.
const (
	ChannelDisplacement = "displacement"
	ChannelNormals      = "normals"
	ChannelSpectrum     = "spectrum"
	ChannelWavenumbers  = "wavenumbers"
)

var errChannel = errors.New("unknown channel")

// Request asks for one channel of the surface at a time.
type Request struct {
	Time       float64 `json:"time"`
	WaveScale  float64 `json:"wave_scale"`
	Choppiness float64 `json:"choppiness"`
	Channel    string  `json:"channel"`
}

// Frame answers a Request. Error is set instead of the data on failure.
type Frame struct {
	Channel    string    `json:"channel"`
	Time       float64   `json:"time"`
	Error      string    `json:"error,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Components int       `json:"components,omitempty"`
	Data       []float32 `json:"data,omitempty"`

	export *ocean.Export
}

// Pool releases the export backing Data once the frame was sent.
func (f *Frame) Pool() {
	if f.export != nil {
		f.export.Release()
		f.export = nil
		f.Data = nil
	}
}

// Server answers requests of every connected client from one Ocean.
type Server struct {
	ocean *ocean.Ocean

	// mutex keeps a simulate and the export that follows it together.
	mutex sync.Mutex
}

func NewServer(o *ocean.Ocean) *Server {
	return &Server{ocean: o}
}

// ServeSocket upgrades the request to a websocket and serves it until it closes.
func (s *Server) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Debug("Socket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(s, conn)
	client.init()
}

func (s *Server) handle(req Request) *Frame {
	frame := &Frame{Channel: req.Channel, Time: req.Time}

	export, err := s.export(req)
	if err != nil {
		frame.Error = err.Error()
		return frame
	}
	frame.export = export
	frame.Width = export.Width
	frame.Height = export.Height
	frame.Components = export.Components
	frame.Data = export.Data
	return frame
}

func (s *Server) export(req Request) (*ocean.Export, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch req.Channel {
	case ChannelSpectrum:
		return s.ocean.ExportSpectrum()
	case ChannelWavenumbers:
		return s.ocean.ExportWavenumbers()
	case ChannelDisplacement, ChannelNormals:
	default:
		return nil, fmt.Errorf("%w %q", errChannel, req.Channel)
	}

	if err := s.ocean.Simulate(req.Time, req.WaveScale, req.Choppiness); err != nil {
		return nil, err
	}
	if req.Channel == ChannelNormals {
		return s.ocean.ExportNormals()
	}
	return s.ocean.ExportDisplacement()
}
