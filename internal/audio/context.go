// Package audio hosts the rendering targets that track chains are mounted
// on: an unbounded real-time context pulled by the output device, and a
// bounded offline context rendered to completion.
package audio

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/sonify-go/internal/synth"
)

// Quantum is the number of frames rendered between cancellation checks
// during offline rendering.
const Quantum = 128

// Processor is a stereo signal stage.
type Processor interface {
	Process(l, r float32) (float32, float32)
}

// BusID addresses a chain attached to a Context.
type BusID int

type bus struct {
	chain  Processor
	voices []synth.Voice
}

// Context mixes scheduled voices through per-bus chains into one stereo
// output. All methods are safe for concurrent use.
type Context struct {
	mu         sync.Mutex
	sampleRate int
	frame      int64
	length     int64 // 0 means unbounded
	buses      []*bus
	master     Processor
	blockL     []float32
	blockR     []float32
}

// NewRealtime returns an unbounded context.
func NewRealtime(sampleRate int) *Context {
	return &Context{sampleRate: sampleRate}
}

// NewOffline returns a context bounded to frames frames.
func NewOffline(sampleRate int, frames int64) *Context {
	if frames < 0 {
		frames = 0
	}
	return &Context{sampleRate: sampleRate, length: frames}
}

func (c *Context) SampleRate() int { return c.sampleRate }

// Length returns the bound of an offline context, or 0.
func (c *Context) Length() int64 { return c.length }

// Attach mounts chain as a new bus. Voices submitted to the bus are summed
// to mono and fed to both inputs of the chain.
func (c *Context) Attach(chain Processor) BusID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buses = append(c.buses, &bus{chain: chain})
	return BusID(len(c.buses) - 1)
}

// SetMaster installs a stage applied to the sum of all buses.
func (c *Context) SetMaster(p Processor) {
	c.mu.Lock()
	c.master = p
	c.mu.Unlock()
}

// CurrentTime returns the time of the next frame to be rendered, in seconds.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.frame) / float64(c.sampleRate)
}

// Submit schedules voices on a bus. Voices already in the past are dropped.
func (c *Context) Submit(id BusID, voices ...synth.Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(id) < 0 || int(id) >= len(c.buses) {
		return
	}
	now := float64(c.frame) / float64(c.sampleRate)
	b := c.buses[id]
	for _, v := range voices {
		if v.End() > now {
			b.voices = append(b.voices, v)
		}
	}
}

// CancelAll silences every pending and sounding voice.
func (c *Context) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.buses {
		b.voices = nil
	}
}

// Pending returns the number of scheduled voices that have not ended.
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.buses {
		n += len(b.voices)
	}
	return n
}

// Update runs fn while no audio is being rendered, so chain parameters
// change between blocks.
func (c *Context) Update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Finished reports whether a bounded context has rendered all its frames.
func (c *Context) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length > 0 && c.frame >= c.length
}

// Process renders len(dst)/2 interleaved stereo frames. Frames past the end
// of a bounded context are silent.
func (c *Context) Process(dst []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := len(dst) / 2
	live := frames
	if c.length > 0 && c.frame+int64(live) > c.length {
		live = int(max(0, c.length-c.frame))
	}
	if cap(c.blockL) < frames {
		c.blockL = make([]float32, frames)
		c.blockR = make([]float32, frames)
	}
	l, r := c.blockL[:live], c.blockR[:live]
	clear(l)
	clear(r)
	for _, b := range c.buses {
		b.render(c.frame, c.sampleRate, l, r)
	}
	c.applyMaster(l, r)
	for i := 0; i < frames; i++ {
		if i < live {
			dst[2*i], dst[2*i+1] = l[i], r[i]
		} else {
			dst[2*i], dst[2*i+1] = 0, 0
		}
	}
	c.frame += int64(live)
}

func (c *Context) applyMaster(l, r []float32) {
	if c.master == nil {
		return
	}
	for i := range l {
		l[i], r[i] = c.master.Process(l[i], r[i])
	}
}

// Render drives a bounded context to completion and returns the planar
// stereo result. Buses render concurrently and are summed in attach order,
// which yields the same samples as rendering through Process.
func (c *Context) Render(ctx context.Context) ([2][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int(c.length - c.frame)
	if n < 0 {
		n = 0
	}
	start := c.frame
	parts := make([][2][]float32, len(c.buses))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range c.buses {
		parts[i] = [2][]float32{make([]float32, n), make([]float32, n)}
		g.Go(func() error {
			out := parts[i]
			for off := 0; off < n; off += Quantum {
				if err := gctx.Err(); err != nil {
					return err
				}
				end := min(off+Quantum, n)
				b.render(start+int64(off), c.sampleRate, out[0][off:end], out[1][off:end])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return [2][]float32{}, err
	}
	mix := [2][]float32{make([]float32, n), make([]float32, n)}
	for _, p := range parts {
		for i := 0; i < n; i++ {
			mix[0][i] += p[0][i]
			mix[1][i] += p[1][i]
		}
	}
	c.applyMaster(mix[0], mix[1])
	c.frame += int64(n)
	return mix, nil
}

// render adds len(l) frames of this bus, starting at frame, into l and r.
func (b *bus) render(frame int64, sampleRate int, l, r []float32) {
	sr := float64(sampleRate)
	for i := range l {
		t := float64(frame+int64(i)) / sr
		var s float32
		for _, v := range b.voices {
			if t >= v.Start() && t < v.End() {
				s += v.Sample(t)
			}
		}
		ol, or := b.chain.Process(s, s)
		l[i] += ol
		r[i] += or
	}
	end := float64(frame+int64(len(l))) / sr
	kept := b.voices[:0]
	for _, v := range b.voices {
		if v.End() > end {
			kept = append(kept, v)
		}
	}
	clear(b.voices[len(kept):])
	b.voices = kept
}
