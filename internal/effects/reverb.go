package effects

import "math/rand"

// Reverb convolves the signal with a synthesized impulse response. The
// impulse is regenerated whenever the decay changes.
type Reverb struct {
	sampleRate int
	rnd        *rand.Rand
	conv       *Convolver
	decay      float64
}

// NewReverb creates a reverb with no impulse; it is silent until SetDecay.
func NewReverb(sampleRate int, rnd *rand.Rand) *Reverb {
	return &Reverb{sampleRate: sampleRate, rnd: rnd, conv: NewConvolver(), decay: -1}
}

// SetDecay rebuilds the impulse response for a tail of decay seconds.
func (r *Reverb) SetDecay(decay float64) {
	if decay == r.decay {
		return
	}
	r.decay = decay
	r.conv.SetImpulse(Impulse(decay, r.sampleRate, r.rnd), r.sampleRate)
}

func (r *Reverb) Decay() float64 { return r.decay }

func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	return r.conv.Process(l, r2)
}

func (r *Reverb) Reset() {
	r.conv.Reset()
}
