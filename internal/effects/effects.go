package effects

// Effector processes stereo audio in-place.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Kind identifies the role of a Unit inside a chain.
type Kind int

const (
	KindDistortion Kind = iota
	KindPanner
	KindPhaser
	KindFlanger
	KindChorus
	KindTremolo
	KindDelay
	KindReverb
	KindCompressor
	KindFilter
	KindGain
)

var kindNames = [...]string{"distortion", "panner", "phaser", "flanger", "chorus", "tremolo", "delay", "reverb", "compressor", "filter", "gain"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Unit wraps an Effector in a parallel wet/dry fragment. The input is split
// into a dry path scaled by the dry gain and a wet path that is scaled by
// the wet gain before being processed; both are summed at the output.
type Unit struct {
	kind Kind
	proc Effector
	wet  float32
	dry  float32
	// freeRunning units keep processing while muted so their oscillators,
	// feedback lines and reverb tails stay continuous.
	freeRunning bool
}

// NewUnit returns a bypassed unit (dry 1, wet 0).
func NewUnit(kind Kind, proc Effector) *Unit {
	u := &Unit{kind: kind, proc: proc, dry: 1}
	switch kind {
	case KindPhaser, KindFlanger, KindChorus, KindTremolo, KindDelay, KindReverb:
		u.freeRunning = true
	}
	return u
}

// NewInlineUnit returns a unit whose whole signal passes through proc.
func NewInlineUnit(kind Kind, proc Effector) *Unit {
	return &Unit{kind: kind, proc: proc, wet: 1}
}

func (u *Unit) Kind() Kind              { return u.kind }
func (u *Unit) Effector() Effector      { return u.proc }
func (u *Unit) Mix() (wet, dry float32) { return u.wet, u.dry }

func (u *Unit) SetMix(wet, dry float32) {
	u.wet = wet
	u.dry = dry
}

// SetActive routes the signal fully through the wet path or fully dry.
func (u *Unit) SetActive(active bool) {
	if active {
		u.SetMix(1, 0)
	} else {
		u.SetMix(0, 1)
	}
}

func (u *Unit) Process(l, r float32) (float32, float32) {
	if u.wet == 0 && !u.freeRunning {
		return l * u.dry, r * u.dry
	}
	wl, wr := u.proc.Process(l*u.wet, r*u.wet)
	return l*u.dry + wl, r*u.dry + wr
}

func (u *Unit) Reset() { u.proc.Reset() }

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Unit returns the first unit of the given kind, or nil.
func (c *Chain) Unit(kind Kind) *Unit {
	for _, e := range c.effects {
		if u, ok := e.(*Unit); ok && u.kind == kind {
			return u
		}
	}
	return nil
}

// Kinds lists the kinds of the chain's units in processing order.
func (c *Chain) Kinds() []Kind {
	var kinds []Kind
	for _, e := range c.effects {
		if u, ok := e.(*Unit); ok {
			kinds = append(kinds, u.kind)
		}
	}
	return kinds
}

// Gain is a plain stereo gain stage.
type Gain struct {
	level float32
}

func NewGain(level float32) *Gain { return &Gain{level: level} }

func (g *Gain) SetLevel(level float32) { g.level = level }
func (g *Gain) Level() float32         { return g.level }

func (g *Gain) Process(l, r float32) (float32, float32) {
	return l * g.level, r * g.level
}

func (g *Gain) Reset() {}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
