package synth

import (
	"math/rand"

	"github.com/cbegin/sonify-go/internal/composition"
)

const (
	kickSweep   = 0.25
	kickFade    = 0.01
	snareDecay  = 0.08
	snareBody   = 0.05
	hatDecay    = 0.03
	kickFloor   = 0.001
	decayFloor  = 0.01
	sweepTarget = 0.01
)

// Drum synthesizes one percussion hit at time t. tone in [0, 1] raises the
// kick's start pitch and the noise filters' cutoffs. Each hit draws a fresh
// noise buffer from rnd.
func Drum(sampleRate int, rnd *rand.Rand, kind composition.DrumKind, tone, t float64) Voice {
	switch kind {
	case composition.Kick:
		return kick(sampleRate, tone, t)
	case composition.Snare:
		return snare(sampleRate, rnd, tone, t)
	default:
		return hat(sampleRate, rnd, tone, t)
	}
}

func kick(sampleRate int, tone, t float64) Voice {
	end := t + kickSweep + kickFade
	o := NewOsc(sampleRate, composition.Sine, 60+90*tone, t, end)
	o.Freq.SetValueAtTime(60+90*tone, t)
	o.Freq.ExponentialRampToValueAtTime(sweepTarget, t+kickSweep)
	o.Gain = NewParam(0)
	o.Gain.SetValueAtTime(0, t)
	o.Gain.LinearRampToValueAtTime(1, t+0.005)
	o.Gain.ExponentialRampToValueAtTime(kickFloor, t+kickSweep)
	o.Gain.LinearRampToValueAtTime(0, end)
	return o
}

func snare(sampleRate int, rnd *rand.Rand, tone, t float64) Voice {
	noise := NewNoise(sampleRate, rnd, 800+1200*tone, t, t+snareDecay)
	noise.Gain.SetValueAtTime(0.4, t)
	noise.Gain.ExponentialRampToValueAtTime(decayFloor, t+snareDecay)

	body := NewOsc(sampleRate, composition.Triangle, 100, t, t+snareBody)
	body.Gain.SetValueAtTime(0.3, t)
	body.Gain.ExponentialRampToValueAtTime(decayFloor, t+snareBody)
	return NewStack(noise, body)
}

func hat(sampleRate int, rnd *rand.Rand, tone, t float64) Voice {
	noise := NewNoise(sampleRate, rnd, 6000+3000*tone, t, t+hatDecay)
	noise.Gain.SetValueAtTime(0.2, t)
	noise.Gain.ExponentialRampToValueAtTime(decayFloor, t+hatDecay)
	return noise
}
