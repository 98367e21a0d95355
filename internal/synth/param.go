package synth

import (
	"math"
	"sort"
)

type rampKind int

const (
	setValue rampKind = iota
	linearRamp
	exponentialRamp
)

type automation struct {
	kind  rampKind
	time  float64
	value float64
}

// Param is a value that follows a timeline of scheduled changes: immediate
// sets, and linear or exponential ramps that end at a given time. Ramps start
// from the previous event. Reads are expected at non-decreasing times.
type Param struct {
	initial float64
	events  []automation
	cursor  int
}

// NewParam returns a parameter holding value until the first event.
func NewParam(value float64) *Param {
	return &Param{initial: value}
}

func (p *Param) insert(a automation) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > a.time })
	p.events = append(p.events, automation{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = a
	if i < p.cursor {
		p.cursor = i
	}
}

// SetValueAtTime jumps to value at t.
func (p *Param) SetValueAtTime(value, t float64) {
	p.insert(automation{kind: setValue, time: t, value: value})
}

// LinearRampToValueAtTime ramps linearly from the previous event to value at t.
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.insert(automation{kind: linearRamp, time: t, value: value})
}

// ExponentialRampToValueAtTime ramps geometrically from the previous event to
// value at t. Ramps between values of opposite sign, or from zero, hold the
// starting value.
func (p *Param) ExponentialRampToValueAtTime(value, t float64) {
	p.insert(automation{kind: exponentialRamp, time: t, value: value})
}

// ValueAt evaluates the timeline at t.
func (p *Param) ValueAt(t float64) float64 {
	if p.cursor > 0 && p.events[p.cursor-1].time > t {
		p.cursor = 0
	}
	for p.cursor < len(p.events) && p.events[p.cursor].time <= t {
		p.cursor++
	}
	prevTime, prevValue := 0.0, p.initial
	if p.cursor > 0 {
		prev := p.events[p.cursor-1]
		prevTime, prevValue = prev.time, prev.value
	}
	if p.cursor == len(p.events) {
		return prevValue
	}
	next := p.events[p.cursor]
	span := next.time - prevTime
	if next.kind == setValue || span <= 0 {
		return prevValue
	}
	frac := (t - prevTime) / span
	switch next.kind {
	case linearRamp:
		return prevValue + (next.value-prevValue)*frac
	case exponentialRamp:
		if prevValue == 0 || prevValue*next.value < 0 {
			return prevValue
		}
		return prevValue * math.Pow(next.value/prevValue, frac)
	}
	return prevValue
}
