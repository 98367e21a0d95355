package effects

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PartitionSize is the block length of the convolver. The first
// PartitionSize taps are applied directly so the output has no latency;
// the remainder runs through a uniformly partitioned FFT.
const PartitionSize = 512

const (
	minImpulsePower       = 0.000125
	impulseCalibration    = 0.00125
	calibrationSampleRate = 44100.0
)

// Convolver applies a stereo impulse response, channel by channel.
type Convolver struct {
	ch      [2]convChannel
	fill    int
	fdlPos  int
	scratch []float64
}

type convChannel struct {
	head    []float64      // first taps, reversed
	hist    []float64      // doubled ring of recent input for the head
	histPos int
	parts   [][]complex128 // tail partition spectra, PartitionSize+1 bins
	fdl     [][]complex128 // frequency-domain delay line of input blocks
	prev    []float64
	cur     []float64
	tailOut []float64
}

func NewConvolver() *Convolver {
	return &Convolver{scratch: make([]float64, 2*PartitionSize)}
}

// ImpulseScale returns the equal-power normalization applied to an impulse.
func ImpulseScale(ir [2][]float32, sampleRate int) float64 {
	var sum float64
	n := 0
	for _, ch := range ir {
		for _, v := range ch {
			sum += float64(v) * float64(v)
		}
		n += len(ch)
	}
	power := 0.0
	if n > 0 {
		power = math.Sqrt(sum / float64(n))
	}
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minImpulsePower {
		power = minImpulsePower
	}
	scale := 1 / power * impulseCalibration
	if sampleRate > 0 {
		scale *= calibrationSampleRate / float64(sampleRate)
	}
	return scale
}

// SetImpulse installs a normalized copy of ir and clears all state.
func (c *Convolver) SetImpulse(ir [2][]float32, sampleRate int) {
	scale := ImpulseScale(ir, sampleRate)
	for i := range c.ch {
		c.ch[i] = newConvChannel(ir[i], scale)
	}
	c.fill = 0
	c.fdlPos = 0
}

func newConvChannel(ir []float32, scale float64) convChannel {
	const b = PartitionSize
	ch := convChannel{
		head:    make([]float64, b),
		hist:    make([]float64, 2*b),
		prev:    make([]float64, b),
		cur:     make([]float64, b),
		tailOut: make([]float64, b),
	}
	for k := 0; k < b && k < len(ir); k++ {
		ch.head[b-1-k] = float64(ir[k]) * scale
	}
	if len(ir) <= b {
		return ch
	}
	tail := ir[b:]
	for start := 0; start < len(tail); start += b {
		block := make([]float64, 2*b)
		for k := 0; k < b && start+k < len(tail); k++ {
			block[k] = float64(tail[start+k]) * scale
		}
		bins := fft.FFTReal(block)
		ch.parts = append(ch.parts, bins[:b+1])
		ch.fdl = append(ch.fdl, make([]complex128, b+1))
	}
	return ch
}

func (c *Convolver) Process(l, r float32) (float32, float32) {
	if c.ch[0].head == nil {
		return 0, 0
	}
	ol := c.ch[0].step(float64(l), c.fill)
	or := c.ch[1].step(float64(r), c.fill)
	c.fill++
	if c.fill == PartitionSize {
		for i := range c.ch {
			c.ch[i].runBlock(c.fdlPos, c.scratch)
		}
		if n := len(c.ch[0].fdl); n > 0 {
			c.fdlPos = (c.fdlPos + 1) % n
		}
		c.fill = 0
	}
	return float32(ol), float32(or)
}

// step consumes one input sample and returns the head plus the pending tail.
func (ch *convChannel) step(x float64, fill int) float64 {
	const b = PartitionSize
	ch.hist[ch.histPos] = x
	ch.hist[ch.histPos+b] = x
	window := ch.hist[ch.histPos+1 : ch.histPos+1+b]
	ch.histPos++
	if ch.histPos == b {
		ch.histPos = 0
	}
	var y float64
	for i, v := range window {
		y += v * ch.head[i]
	}
	ch.cur[fill] = x
	return y + ch.tailOut[fill]
}

// runBlock convolves the completed input block with the tail partitions.
// The result is played back during the next block, which lines up with the
// tail's one-partition offset.
func (ch *convChannel) runBlock(pos int, scratch []float64) {
	const b = PartitionSize
	p := len(ch.parts)
	if p == 0 {
		copy(ch.prev, ch.cur)
		return
	}
	copy(scratch[:b], ch.prev)
	copy(scratch[b:], ch.cur)
	copy(ch.prev, ch.cur)
	bins := fft.FFTReal(scratch)
	copy(ch.fdl[pos], bins[:b+1])

	acc := make([]complex128, 2*b)
	for j := 0; j < p; j++ {
		x := ch.fdl[(pos-j+p)%p]
		h := ch.parts[j]
		for k := 0; k <= b; k++ {
			acc[k] += x[k] * h[k]
		}
	}
	for k := 1; k < b; k++ {
		acc[2*b-k] = cmplx.Conj(acc[k])
	}
	y := fft.IFFT(acc)
	for i := 0; i < b; i++ {
		ch.tailOut[i] = real(y[b+i])
	}
}

func (c *Convolver) Reset() {
	for i := range c.ch {
		ch := &c.ch[i]
		zero(ch.hist)
		zero(ch.prev)
		zero(ch.cur)
		zero(ch.tailOut)
		for _, f := range ch.fdl {
			for k := range f {
				f[k] = 0
			}
		}
		ch.histPos = 0
	}
	c.fill = 0
	c.fdlPos = 0
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
