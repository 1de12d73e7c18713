// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Spectrum selects the wave energy model used to seed the sea state.
type Spectrum int

const (
	Phillips Spectrum = iota
	PiersonMoskowitz
	JONSWAP
	TMA // JONSWAP with shallow water attenuation
)

var spectrumNames = [...]string{
	Phillips:         "phillips",
	PiersonMoskowitz: "pierson_moskowitz",
	JONSWAP:          "jonswap",
	TMA:              "tma",
}

func (s Spectrum) String() string {
	if s < 0 || int(s) >= len(spectrumNames) {
		return fmt.Sprintf("spectrum(%d)", int(s))
	}
	return spectrumNames[s]
}

func (s Spectrum) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(spectrumNames) {
		return nil, fmt.Errorf("unknown spectrum %d", int(s))
	}
	return []byte(spectrumNames[s]), nil
}

func (s *Spectrum) UnmarshalText(text []byte) error {
	for i, name := range spectrumNames {
		if name == string(text) {
			*s = Spectrum(i)
			return nil
		}
	}
	return fmt.Errorf("unknown spectrum %q", text)
}

// Params describes a sea state and which output fields to compute.
type Params struct {
	M int `json:"m"` // grid rows (x axis)
	N int `json:"n"` // grid columns (z axis)

	SizeX float64 `json:"size_x"` // meters
	SizeZ float64 `json:"size_z"` // meters

	WindSpeed       float64 `json:"wind_speed"`       // m/s
	WindDirection   float64 `json:"wind_direction"`   // radians
	WindAlignment   float64 `json:"wind_alignment"`   // exponent on |cos| between wave and wind
	DampReflections float64 `json:"damp_reflections"` // 0 keeps waves against the wind, 1 removes them

	SmallestWave float64  `json:"smallest_wave"`
	Amplitude    float64  `json:"amplitude"`
	Depth        float64  `json:"depth"`
	Spectrum     Spectrum `json:"spectrum"`
	Fetch        float64  `json:"fetch_jonswap"`
	SharpenPeak  float64  `json:"sharpen_peak_jonswap"`
	Gravity      float64  `json:"gravity,omitempty"`

	Seed int64 `json:"seed"`

	Height   bool `json:"height"`
	Choppy   bool `json:"choppy"`
	Normals  bool `json:"normals"`
	Jacobian bool `json:"jacobian"`
	Spray    bool `json:"spray"`
}

// DefaultParams returns a moderate deep water sea with every output enabled.
func DefaultParams() Params {
	return Params{
		M:               64,
		N:               64,
		SizeX:           50,
		SizeZ:           50,
		WindSpeed:       30,
		WindAlignment:   0,
		DampReflections: 0.5,
		SmallestWave:    0.01,
		Amplitude:       1,
		Depth:           200,
		Spectrum:        Phillips,
		Fetch:           120,
		SharpenPeak:     3.3,
		Gravity:         Gravity,
		Seed:            0,
		Height:          true,
		Choppy:          true,
		Normals:         true,
		Jacobian:        true,
		Spray:           true,
	}
}

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	CaseSensitive:          true,
}.Froze()

// LoadParams decodes JSON params on top of DefaultParams.
func LoadParams(r io.Reader) (Params, error) {
	params := DefaultParams()
	if err := json.NewDecoder(r).Decode(&params); err != nil {
		return params, fmt.Errorf("decoding ocean params: %w", err)
	}
	return params, nil
}
