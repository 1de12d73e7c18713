// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ocean

import "math"

// Gravity is the default gravitational acceleration in m/s².
const Gravity = 9.81

// spectrumModel holds the constants every spectrum family reads.
type spectrumModel struct {
	family Spectrum
	g      float64

	windSpeed     float64 // V
	bigL          float64 // largest wave for the wind speed, V²/g
	smallL        float64 // smallest wave
	amplitude     float64
	wx, wz        float64 // unit wind direction
	windAlignment float64
	damp          float64 // factor applied to waves travelling against the wind
	depth         float64
	fetch         float64
	gamma         float64
}

func newSpectrumModel(p *Params) spectrumModel {
	g := p.Gravity
	if g <= 0 {
		g = Gravity
	}
	v := math.Max(p.WindSpeed, minExtent)

	return spectrumModel{
		family:        p.Spectrum,
		g:             g,
		windSpeed:     v,
		bigL:          v * v / g,
		smallL:        p.SmallestWave,
		amplitude:     p.Amplitude,
		wx:            math.Cos(p.WindDirection),
		wz:            -math.Sin(p.WindDirection),
		windAlignment: p.WindAlignment,
		damp:          1 - clamp(p.DampReflections, 0, 1),
		depth:         math.Max(p.Depth, minExtent),
		fetch:         math.Max(p.Fetch, minExtent),
		gamma:         p.SharpenPeak,
	}
}

// at returns the energy density at wavenumber (kx, kz). It is 0 at the origin and never negative.
func (s *spectrumModel) at(kx, kz float64) float64 {
	k2 := kx*kx + kz*kz
	if k2 == 0 {
		return 0
	}

	var val float64
	switch s.family {
	case PiersonMoskowitz:
		val = s.windAndDamp(kx, kz, k2, s.piersonMoskowitz(k2))
	case JONSWAP:
		val = s.windAndDamp(kx, kz, k2, s.jonswap(k2))
	case TMA:
		val = s.windAndDamp(kx, kz, k2, s.jonswap(k2)) * s.kitaigorodskii(k2)
	default:
		val = s.phillips(kx, kz, k2)
	}

	if !(val > 0) || math.IsInf(val, 0) {
		// Catches NaN from degenerate parameters as well as negatives.
		return 0
	}
	return val
}

func (s *spectrumModel) phillips(kx, kz, k2 float64) float64 {
	l2 := s.smallL * s.smallL
	L2 := s.bigL * s.bigL
	val := s.amplitude * math.Exp(-1/(k2*L2)) * math.Exp(-k2*l2) / (k2 * k2)
	return s.windAndDamp(kx, kz, k2, val)
}

// windAndDamp biases val towards the wind direction and damps waves travelling against it.
func (s *spectrumModel) windAndDamp(kx, kz, k2, val float64) float64 {
	cos := (kx*s.wx + kz*s.wz) / math.Sqrt(k2)
	val *= math.Pow(math.Abs(cos), s.windAlignment)
	if cos < 0 {
		val *= s.damp
	}
	return val
}

// omega is the deep/shallow water dispersion relation.
func (s *spectrumModel) omega(k float64) float64 {
	return math.Sqrt(s.g * k * math.Tanh(k*s.depth))
}

func (s *spectrumModel) piersonMoskowitz(k2 float64) float64 {
	const (
		alpha = 0.0081
		beta  = 1.291
	)
	peakOmega := 0.87 * s.g / s.windSpeed
	return alphaBetaSpectrum(alpha, beta, s.g, s.omega(math.Sqrt(k2)), peakOmega)
}

func (s *spectrumModel) jonswap(k2 float64) float64 {
	const beta = 1.25

	omega := s.omega(math.Sqrt(k2))
	dimensionlessFetch := math.Abs(s.g * s.fetch / math.Sqrt(s.windSpeed))
	alpha := 0.076 * math.Pow(dimensionlessFetch, -0.22)
	peakOmega := 2 * math.Pi * 3.5 * math.Abs(s.g/s.windSpeed) * math.Pow(dimensionlessFetch, -0.33)

	val := alphaBetaSpectrum(alpha, beta, s.g, omega, peakOmega)
	return val * peakSharpen(omega, peakOmega, s.gamma)
}

// kitaigorodskii attenuates the spectrum in shallow water: 0 when very shallow, 1 when deep.
func (s *spectrumModel) kitaigorodskii(k2 float64) float64 {
	wh := s.omega(math.Sqrt(k2)) * math.Sqrt(s.depth/s.g)
	return 0.5 + 0.5*math.Tanh(1.8*(wh-1.125))
}

func alphaBetaSpectrum(alpha, beta, g, omega, peakOmega float64) float64 {
	if omega == 0 {
		return 0
	}
	return (alpha * math.Sqrt(g) / math.Pow(omega, 5)) * math.Exp(-beta*math.Pow(peakOmega/omega, 4))
}

// peakSharpen narrows the spectral peak; sigma is narrower below the peak than above.
func peakSharpen(omega, peakOmega, gamma float64) float64 {
	sigma := 0.07
	if omega > peakOmega {
		sigma = 0.09
	}
	d := omega - peakOmega
	return math.Pow(gamma, math.Exp(-(d*d)/(2*sigma*sigma*peakOmega*peakOmega)))
}
