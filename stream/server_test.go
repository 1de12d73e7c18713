// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SoftbearStudios/swell/ocean"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()

	params := ocean.DefaultParams()
	params.M = 16
	params.N = 8
	o, err := ocean.New(params)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(o.Free)

	server := httptest.NewServer(http.HandlerFunc(NewServer(o).ServeSocket))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) Frame {
	t.Helper()

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestServer_Displacement(t *testing.T) {
	conn := dial(t)

	frame := roundTrip(t, conn, Request{Time: 2, WaveScale: 1, Choppiness: 1, Channel: ChannelDisplacement})
	if frame.Error != "" {
		t.Fatal(frame.Error)
	}
	if frame.Channel != ChannelDisplacement || frame.Time != 2 {
		t.Error("frame expected displacement at 2 got", frame.Channel, frame.Time)
	}
	if frame.Width != 8 || frame.Height != 16 || frame.Components != 3 || len(frame.Data) != 8*16*3 {
		t.Error("frame expected 8x16x3 got", frame.Width, frame.Height, frame.Components, len(frame.Data))
	}

	normals := roundTrip(t, conn, Request{Time: 2, WaveScale: 1, Choppiness: 1, Channel: ChannelNormals})
	if len(normals.Data) != 8*16*3 {
		t.Error("normals expected", 8*16*3, "values got", len(normals.Data))
	}

	spectrum := roundTrip(t, conn, Request{Channel: ChannelSpectrum})
	if spectrum.Width != 5 || spectrum.Components != 4 {
		t.Error("spectrum expected width 5 with 4 components got", spectrum.Width, spectrum.Components)
	}
}

func TestServer_UnknownChannel(t *testing.T) {
	conn := dial(t)

	frame := roundTrip(t, conn, Request{Channel: "vorticity"})
	if frame.Error == "" || frame.Data != nil {
		t.Error("unknown channel expected error frame got", frame)
	}

	// The connection survives a bad request.
	frame = roundTrip(t, conn, Request{Channel: ChannelWavenumbers})
	if frame.Error != "" || frame.Components != 3 {
		t.Error("wavenumbers expected 3 components got", frame.Components, frame.Error)
	}
}
