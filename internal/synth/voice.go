package synth

import (
	"math/rand"

	"github.com/cbegin/sonify-go/internal/composition"
	"github.com/cbegin/sonify-go/internal/effects"
	"github.com/cbegin/sonify-go/internal/wave"
)

// Voice is one sounding instance with its own amplitude envelope. Sample is
// called with strictly increasing times in [Start, End).
type Voice interface {
	Start() float64
	End() float64
	Sample(t float64) float32
}

// Osc is a table oscillator with automatable frequency and gain.
type Osc struct {
	sampleRate float64
	table      *wave.Table
	Freq       *Param
	Gain       *Param
	start, end float64
	phase      float64
}

// NewOsc creates an oscillator of the given timbre that sounds over
// [start, end). Gain starts at 1.
func NewOsc(sampleRate int, timbre composition.Timbre, freq, start, end float64) *Osc {
	return &Osc{
		sampleRate: float64(sampleRate),
		table:      wave.For(timbre),
		Freq:       NewParam(freq),
		Gain:       NewParam(1),
		start:      start,
		end:        end,
	}
}

func (o *Osc) Start() float64 { return o.start }
func (o *Osc) End() float64   { return o.end }

func (o *Osc) Sample(t float64) float32 {
	f := o.Freq.ValueAt(t)
	v := wave.At(o.table.Level(f, o.sampleRate), o.phase)
	o.phase += f / o.sampleRate
	o.phase -= float64(int(o.phase))
	if o.phase < 0 {
		o.phase += 1
	}
	return float32(v * o.Gain.ValueAt(t))
}

// Noise plays a buffer of white noise through a high-pass filter.
type Noise struct {
	buf        []float32
	filter     effects.Biquad
	Gain       *Param
	start, end float64
	pos        int
}

// NewNoise fills a fresh noise buffer covering [start, end) from rnd.
func NewNoise(sampleRate int, rnd *rand.Rand, highpass, start, end float64) *Noise {
	n := int((end-start)*float64(sampleRate)) + 1
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(rnd.Float64()*2 - 1)
	}
	v := &Noise{buf: buf, Gain: NewParam(1), start: start, end: end}
	v.filter.Highpass(float64(sampleRate), highpass, 1)
	return v
}

func (n *Noise) Start() float64 { return n.start }
func (n *Noise) End() float64   { return n.end }

func (n *Noise) Sample(t float64) float32 {
	var x float32
	if n.pos < len(n.buf) {
		x = n.buf[n.pos]
		n.pos++
	}
	y := n.filter.Process(float64(x))
	return float32(y * n.Gain.ValueAt(t))
}

// Stack sums several voices into one.
type Stack struct {
	parts      []Voice
	start, end float64
}

func NewStack(parts ...Voice) *Stack {
	s := &Stack{parts: parts}
	for i, p := range parts {
		if i == 0 || p.Start() < s.start {
			s.start = p.Start()
		}
		if i == 0 || p.End() > s.end {
			s.end = p.End()
		}
	}
	return s
}

func (s *Stack) Start() float64 { return s.start }
func (s *Stack) End() float64   { return s.end }

func (s *Stack) Sample(t float64) float32 {
	var sum float32
	for _, p := range s.parts {
		if t >= p.Start() && t < p.End() {
			sum += p.Sample(t)
		}
	}
	return sum
}

// Envelope shapes the gain: 0 to peak over attack, hold until release
// before the end, then down to 0 at the end.
func (o *Osc) Envelope(peak, attack, release float64) {
	o.Gain = NewParam(0)
	o.Gain.SetValueAtTime(0, o.start)
	o.Gain.LinearRampToValueAtTime(peak, o.start+attack)
	o.Gain.SetValueAtTime(peak, o.end-release)
	o.Gain.LinearRampToValueAtTime(0, o.end)
}
