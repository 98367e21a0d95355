package effects

import "github.com/cbegin/sonify-go/internal/lfo"

// Tremolo modulates amplitude: gain = (1 - depth/2) + sin * depth/2.
type Tremolo struct {
	sampleRate float64
	base       float64
	lfo        *lfo.LFO
}

func NewTremolo(sampleRate int) *Tremolo {
	return &Tremolo{sampleRate: float64(sampleRate), base: 1, lfo: lfo.New(0, 0)}
}

func (t *Tremolo) SetRate(hz float64) { t.lfo.SetRate(hz) }

func (t *Tremolo) SetDepth(depth float64) {
	t.base = 1 - depth/2
	t.lfo.SetDepth(depth / 2)
}

func (t *Tremolo) Process(l, r float32) (float32, float32) {
	g := float32(t.base + t.lfo.Sample(t.sampleRate))
	return l * g, r * g
}

func (t *Tremolo) Reset() {}
