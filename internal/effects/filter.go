package effects

// ResonantFilter is a stereo resonant low-pass.
type ResonantFilter struct {
	sampleRate float64
	l, r       Biquad
	freq, q    float64
}

// NewResonantFilter creates an open low-pass (cutoff at Nyquist).
func NewResonantFilter(sampleRate int) *ResonantFilter {
	f := &ResonantFilter{sampleRate: float64(sampleRate)}
	f.Disable()
	return f
}

// SetCutoff sets the cutoff in Hz and the resonance in dB.
func (f *ResonantFilter) SetCutoff(freq, qDB float64) {
	f.freq, f.q = freq, qDB
	f.l.Lowpass(f.sampleRate, freq, qDB)
	f.r.Lowpass(f.sampleRate, freq, qDB)
}

// Disable moves the cutoff to the audible ceiling, which passes the signal.
func (f *ResonantFilter) Disable() {
	f.SetCutoff(f.sampleRate/2, 1)
}

func (f *ResonantFilter) Cutoff() float64 { return f.freq }

func (f *ResonantFilter) Process(l, r float32) (float32, float32) {
	return float32(f.l.Process(float64(l))), float32(f.r.Process(float64(r)))
}

func (f *ResonantFilter) Reset() {
	f.l.Reset()
	f.r.Reset()
}
