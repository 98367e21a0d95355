package effects

import (
	"math"

	"github.com/cbegin/sonify-go/internal/lfo"
)

const (
	// MaxFlangerSeconds bounds the flanger's modulated delay.
	MaxFlangerSeconds = 0.1
	// MaxChorusSeconds bounds the chorus's modulated delay.
	MaxChorusSeconds = 1.0
)

// ModulatedDelay is a delay line whose time is swept by a sine LFO around a
// base offset. With feedback it flanges; without it, it choruses.
type ModulatedDelay struct {
	sampleRate float64
	maxDelay   float64
	lineL      *delayLine
	lineR      *delayLine
	base       float64 // seconds
	feedback   float32
	lfo        *lfo.LFO // depth in seconds
}

func newModulatedDelay(sampleRate int, maxSeconds float64) *ModulatedDelay {
	size := int(math.Ceil(maxSeconds*float64(sampleRate))) + 2
	return &ModulatedDelay{
		sampleRate: float64(sampleRate),
		maxDelay:   maxSeconds,
		lineL:      newDelayLine(size),
		lineR:      newDelayLine(size),
		lfo:        lfo.New(0, 0),
	}
}

// NewFlanger creates a short modulated delay with feedback.
func NewFlanger(sampleRate int) *ModulatedDelay {
	return newModulatedDelay(sampleRate, MaxFlangerSeconds)
}

// NewChorus creates a longer modulated delay without feedback.
func NewChorus(sampleRate int) *ModulatedDelay {
	return newModulatedDelay(sampleRate, MaxChorusSeconds)
}

// SetBase sets the centre delay in seconds.
func (m *ModulatedDelay) SetBase(seconds float64) { m.base = seconds }

// SetDepth sets the sweep amplitude in seconds.
func (m *ModulatedDelay) SetDepth(seconds float64) { m.lfo.SetDepth(seconds) }

// SetRate sets the sweep rate in Hz.
func (m *ModulatedDelay) SetRate(hz float64) { m.lfo.SetRate(hz) }

func (m *ModulatedDelay) SetFeedback(feedback float32) {
	m.feedback = clamp(feedback, 0, 0.95)
}

func (m *ModulatedDelay) Process(l, r float32) (float32, float32) {
	seconds := clamp64(m.base+m.lfo.Sample(m.sampleRate), 0, m.maxDelay)
	d := seconds * m.sampleRate
	delL := m.lineL.read(d)
	delR := m.lineR.read(d)
	m.lineL.write(l + delL*m.feedback)
	m.lineR.write(r + delR*m.feedback)
	return delL, delR
}

// Reset clears the delay lines. The LFO keeps its phase.
func (m *ModulatedDelay) Reset() {
	m.lineL.reset()
	m.lineR.reset()
}
