package effects

import "math"

// Panner positions a stereo signal with an equal-power law. Negative pan
// folds the right channel into the left, positive pan the reverse.
type Panner struct {
	pan float64
}

func NewPanner() *Panner { return &Panner{} }

// SetPan sets the position in [-1, 1].
func (p *Panner) SetPan(pan float64) { p.pan = clamp64(pan, -1, 1) }

func (p *Panner) Pan() float64 { return p.pan }

func (p *Panner) Process(l, r float32) (float32, float32) {
	if p.pan <= 0 {
		x := (p.pan + 1) * math.Pi / 2
		gl, gr := float32(math.Cos(x)), float32(math.Sin(x))
		return l + r*gl, r * gr
	}
	x := p.pan * math.Pi / 2
	gl, gr := float32(math.Cos(x)), float32(math.Sin(x))
	return l * gl, r + l*gr
}

func (p *Panner) Reset() {}
