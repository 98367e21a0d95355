package effects

// delayLine is a circular buffer read at fractional offsets.
type delayLine struct {
	buf []float32
	pos int
}

func newDelayLine(size int) *delayLine {
	if size < 2 {
		size = 2
	}
	return &delayLine{buf: make([]float32, size)}
}

// read returns the sample written delay samples ago, interpolating
// linearly. delay is clamped to [1, len-1].
func (d *delayLine) read(delay float64) float32 {
	n := len(d.buf)
	if delay < 1 {
		delay = 1
	}
	if limit := float64(n - 1); delay > limit {
		delay = limit
	}
	readPos := float64(d.pos) - delay
	if readPos < 0 {
		readPos += float64(n)
	}
	idx := int(readPos)
	frac := float32(readPos - float64(idx))
	idx2 := idx + 1
	if idx2 >= n {
		idx2 = 0
	}
	return d.buf[idx]*(1-frac) + d.buf[idx2]*frac
}

func (d *delayLine) write(v float32) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

// MaxEchoSeconds bounds the echo delay time.
const MaxEchoSeconds = 5.0

// Delay implements a stereo echo with a feedback loop. The output is the
// delayed signal only; the dry path belongs to the enclosing Unit.
type Delay struct {
	sampleRate float64
	lineL      *delayLine
	lineR      *delayLine
	delay      float64 // samples
	feedback   float32
}

// NewDelay creates an echo with room for MaxEchoSeconds of delay.
func NewDelay(sampleRate int) *Delay {
	size := int(MaxEchoSeconds*float64(sampleRate)) + 2
	return &Delay{
		sampleRate: float64(sampleRate),
		lineL:      newDelayLine(size),
		lineR:      newDelayLine(size),
		delay:      1,
	}
}

// SetTime sets the echo time in seconds.
func (d *Delay) SetTime(seconds float64) {
	d.delay = clamp64(seconds, 0, MaxEchoSeconds) * d.sampleRate
}

// SetFeedback sets the amount of output fed back into the line.
func (d *Delay) SetFeedback(feedback float32) {
	d.feedback = clamp(feedback, 0, 0.95)
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	delL := d.lineL.read(d.delay)
	delR := d.lineR.read(d.delay)
	d.lineL.write(l + delL*d.feedback)
	d.lineR.write(r + delR*d.feedback)
	return delL, delR
}

func (d *Delay) Reset() {
	d.lineL.reset()
	d.lineR.reset()
}
