package effects

import "math"

// Biquad is a mono second-order IIR section in direct form I. Coefficients
// follow the audio EQ cookbook; Q for low-pass and high-pass is in dB, for
// all-pass it is linear.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewBiquad returns an identity filter.
func NewBiquad() *Biquad {
	return &Biquad{b0: 1}
}

func (f *Biquad) set(b0, b1, b2, a0, a1, a2 float64) {
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

func (f *Biquad) identity() { f.b0, f.b1, f.b2, f.a1, f.a2 = 1, 0, 0, 0, 0 }
func (f *Biquad) mute()     { f.b0, f.b1, f.b2, f.a1, f.a2 = 0, 0, 0, 0, 0 }

// Lowpass configures a resonant low-pass. Cutoffs at or above Nyquist pass
// the signal unchanged.
func (f *Biquad) Lowpass(sampleRate, freq, qDB float64) {
	norm := freq / (sampleRate / 2)
	switch {
	case norm >= 1:
		f.identity()
		return
	case norm <= 0:
		f.mute()
		return
	}
	w0 := math.Pi * norm
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * math.Pow(10, -qDB/20)
	f.set((1-cos)/2, 1-cos, (1-cos)/2, 1+alpha, -2*cos, 1-alpha)
}

// Highpass configures a resonant high-pass.
func (f *Biquad) Highpass(sampleRate, freq, qDB float64) {
	norm := freq / (sampleRate / 2)
	switch {
	case norm >= 1:
		f.mute()
		return
	case norm <= 0:
		f.identity()
		return
	}
	w0 := math.Pi * norm
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * math.Pow(10, -qDB/20)
	f.set((1+cos)/2, -(1 + cos), (1+cos)/2, 1+alpha, -2*cos, 1-alpha)
}

// Allpass configures a second-order all-pass centred on freq.
func (f *Biquad) Allpass(sampleRate, freq, q float64) {
	norm := freq / (sampleRate / 2)
	if norm <= 0 || norm >= 1 || q <= 0 {
		f.identity()
		return
	}
	w0 := math.Pi * norm
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	f.set(1-alpha, -2*cos, 1+alpha, 1+alpha, -2*cos, 1-alpha)
}

func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}
