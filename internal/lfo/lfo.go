// Package lfo provides the sine modulation oscillator shared by the
// time-varying effect units.
package lfo

import "math"

// LFO is a low-frequency sine oscillator that produces per-sample modulation.
// The phase always advances, even at zero depth, so that re-enabling a
// modulated unit picks up where the oscillator would have been.
type LFO struct {
	depth  float64 // modulation depth (units depend on context: Hz, seconds, gain)
	rateHz float64 // oscillation rate in Hz
	phase  float64 // current phase [0, 1)
}

// New returns a sine LFO at the given rate and depth.
func New(rateHz, depth float64) *LFO {
	return &LFO{rateHz: rateHz, depth: depth}
}

func (l *LFO) SetRate(rateHz float64) { l.rateHz = rateHz }
func (l *LFO) SetDepth(depth float64) { l.depth = depth }

// Sample advances the LFO by one sample and returns a value in [-depth, +depth].
func (l *LFO) Sample(sampleRate float64) float64 {
	v := math.Sin(2*math.Pi*l.phase) * l.depth
	if sampleRate > 0 {
		l.phase += l.rateHz / sampleRate
		l.phase -= math.Floor(l.phase)
	}
	return v
}

// Phase returns the current phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }
