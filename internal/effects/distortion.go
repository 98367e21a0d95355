package effects

import "math"

// CurveSize is the number of points in a distortion transfer curve.
const CurveSize = 44100

// Curve returns the soft-knee transfer function for drive in [0, 1],
// sampled at CurveSize points over [-1, 1). Higher drive steepens the knee
// toward hard saturation.
func Curve(drive float64) []float32 {
	k := math.Max(0, drive*100)
	const deg = math.Pi / 180
	curve := make([]float32, CurveSize)
	for i := range curve {
		x := float64(i)*2/CurveSize - 1
		curve[i] = float32((3 + k) * x * 20 * deg / (math.Pi + k*math.Abs(x)))
	}
	return curve
}

// Shape maps x through curve, interpolating linearly between points and
// holding the end points outside [-1, 1]. A nil curve passes x unchanged.
func Shape(curve []float32, x float32) float32 {
	n := len(curve)
	if n == 0 {
		return x
	}
	v := float64(n-1) * (float64(x) + 1) / 2
	if v <= 0 {
		return curve[0]
	}
	if v >= float64(n-1) {
		return curve[n-1]
	}
	k := int(v)
	f := float32(v - float64(k))
	return curve[k]*(1-f) + curve[k+1]*f
}

// Distortion implements waveshaping followed by a low-pass tone filter and
// an output trim.
type Distortion struct {
	sampleRate float64
	curve      []float32
	drive      float64
	toneL      Biquad
	toneR      Biquad
	output     float32
}

// NewDistortion creates a distortion stage with no curve, an open tone
// filter and unity output.
func NewDistortion(sampleRate int) *Distortion {
	d := &Distortion{sampleRate: float64(sampleRate), drive: -1, output: 1}
	d.SetTone(float64(sampleRate) / 2)
	return d
}

// SetDrive regenerates the transfer curve.
func (d *Distortion) SetDrive(drive float64) {
	d.drive = drive
	d.curve = Curve(drive)
}

// SetTone sets the tone filter cutoff in Hz.
func (d *Distortion) SetTone(hz float64) {
	d.toneL.Lowpass(d.sampleRate, hz, 1)
	d.toneR.Lowpass(d.sampleRate, hz, 1)
}

// SetOutput sets the post-filter trim.
func (d *Distortion) SetOutput(level float32) { d.output = level }

func (d *Distortion) Process(l, r float32) (float32, float32) {
	l = Shape(d.curve, l)
	r = Shape(d.curve, r)
	l = float32(d.toneL.Process(float64(l)))
	r = float32(d.toneR.Process(float64(r)))
	return l * d.output, r * d.output
}

func (d *Distortion) Reset() {
	d.toneL.Reset()
	d.toneR.Reset()
}
