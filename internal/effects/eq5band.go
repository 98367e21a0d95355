package effects

import (
	"math"
	"sync/atomic"
)

// EQ5Band is a master equalizer with runtime-adjustable gains.
// Bands are split at 200Hz, 800Hz, 2.5kHz, and 8kHz by subtracting
// successive low-pass outputs, so unity gains reconstruct the input.
// Gains are stored as uint32 (bit-cast float32) for lock-free reads from the audio thread.
type EQ5Band struct {
	gains [5]atomic.Uint32
	lpL   [4]Biquad
	lpR   [4]Biquad
}

var defaultCrossovers = [4]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	for i, freq := range defaultCrossovers {
		eq.lpL[i].Lowpass(float64(sampleRate), freq, 0)
		eq.lpR[i].Lowpass(float64(sampleRate), freq, 0)
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < 5 {
		if gain < 0 {
			gain = 0
		}
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < 5 {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	var g [5]float32
	flat := true
	for i := range g {
		g[i] = math.Float32frombits(eq.gains[i].Load())
		flat = flat && g[i] == 1
	}
	var outL, outR float64
	remL, remR := float64(l), float64(r)
	for i := 0; i < 4; i++ {
		bl := eq.lpL[i].Process(remL)
		br := eq.lpR[i].Process(remR)
		outL += bl * float64(g[i])
		outR += br * float64(g[i])
		remL -= bl
		remR -= br
	}
	if flat {
		return l, r
	}
	outL += remL * float64(g[4])
	outR += remR * float64(g[4])
	return float32(outL), float32(outR)
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lpL {
		eq.lpL[i].Reset()
		eq.lpR[i].Reset()
	}
}
