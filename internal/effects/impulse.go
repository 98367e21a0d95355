package effects

import (
	"math"
	"math/rand"
)

type reflection struct {
	time, gain, pan float64
}

var earlyReflections = [4]reflection{
	{0.015, 0.4, -0.8},
	{0.022, 0.3, 0.7},
	{0.030, 0.35, -0.4},
	{0.045, 0.2, 0.6},
}

const (
	tailStart    = 0.05
	tailLoudness = 0.25
	peakFloor    = 1e-5
)

// Impulse synthesizes a stereo reverb impulse response of ceil(decay*rate)
// samples: four panned early reflections followed by a decaying noise tail,
// normalized to a peak of 1. Lengths of one sample or less yield a single
// silent sample.
func Impulse(decay float64, sampleRate int, rnd *rand.Rand) [2][]float32 {
	length := int(math.Ceil(float64(sampleRate) * decay))
	if length <= 1 {
		return [2][]float32{make([]float32, 1), make([]float32, 1)}
	}
	left := make([]float64, length)
	right := make([]float64, length)

	for _, ref := range earlyReflections {
		i := int(math.Floor(ref.time * float64(sampleRate)))
		if i < 0 || i >= length {
			continue
		}
		theta := (ref.pan*0.5 + 0.5) * math.Pi * 0.5
		left[i] += math.Cos(theta) * ref.gain
		right[i] += math.Sin(theta) * ref.gain
	}

	for i := int(math.Floor(tailStart * float64(sampleRate))); i < length; i++ {
		power := math.Pow(1-float64(i)/float64(length), 2.5)
		left[i] += (rnd.Float64()*2 - 1) * power * tailLoudness
		right[i] += (rnd.Float64()*2 - 1) * power * tailLoudness
	}

	peak := peakFloor
	for i := range left {
		peak = math.Max(peak, math.Max(math.Abs(left[i]), math.Abs(right[i])))
	}
	out := [2][]float32{make([]float32, length), make([]float32, length)}
	for i := range left {
		out[0][i] = float32(left[i] / peak)
		out[1][i] = float32(right[i] / peak)
	}
	return out
}
