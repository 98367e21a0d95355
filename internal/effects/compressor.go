package effects

import "math"

// Compressor implements hard-knee dynamic range compression with linked
// stereo detection. Threshold 0 dB with ratio 1 is an exact no-op.
type Compressor struct {
	sampleRate float64
	threshold  float32 // linear
	ratio      float32
	attack     float32 // coefficient
	release    float32 // coefficient
	env        float32
}

// NewCompressor creates a compressor in its no-op state.
func NewCompressor(sampleRate int) *Compressor {
	c := &Compressor{sampleRate: float64(sampleRate)}
	c.Set(0, 1, 0.003, 0.25)
	return c
}

// Set configures the compressor.
// thresholdDB: threshold in dB (-100..0)
// ratio: compression ratio (1..20)
// attack, release: envelope times in seconds
func (c *Compressor) Set(thresholdDB, ratio, attack, release float64) {
	c.threshold = float32(math.Pow(10, clamp64(thresholdDB, -100, 0)/20))
	c.ratio = float32(clamp64(ratio, 1, 20))
	c.attack = timeCoefficient(attack, c.sampleRate)
	c.release = timeCoefficient(release, c.sampleRate)
}

// Disable forces threshold 0 dB and ratio 1 so the signal passes unchanged.
func (c *Compressor) Disable() {
	c.threshold = 1
	c.ratio = 1
}

func timeCoefficient(seconds, sampleRate float64) float32 {
	if seconds <= 0 {
		return 1
	}
	return float32(1.0 - math.Exp(-1.0/(seconds*sampleRate)))
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	level := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	// Envelope follower
	if level > c.env {
		c.env += c.attack * (level - c.env)
	} else {
		c.env += c.release * (level - c.env)
	}
	g := c.computeGain(c.env)
	return l * g, r * g
}

func (c *Compressor) computeGain(env float32) float32 {
	if env <= c.threshold || c.ratio <= 1 {
		return 1.0
	}
	// How far above threshold in linear scale
	over := env / c.threshold
	// Apply ratio: reduce the excess
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.env = 0
}
