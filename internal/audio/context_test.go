package audio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cbegin/sonify-go/internal/composition"
	"github.com/cbegin/sonify-go/internal/effects"
	"github.com/cbegin/sonify-go/internal/synth"
)

func tone(freq, start, end float64) synth.Voice {
	o := synth.NewOsc(44100, composition.Sine, freq, start, end)
	o.Envelope(0.25, 0.005, 0.01)
	return o
}

func setup(c *Context) {
	a := c.Attach(effects.NewChain(effects.NewGain(0.5)))
	b := c.Attach(effects.NewChain(effects.NewUnit(effects.KindDelay, effects.NewDelay(44100))))
	c.Submit(a, tone(440, 0, 0.25), tone(660, 0.1, 0.3))
	c.Submit(b, tone(220, 0.05, 0.4))
}

func TestOfflineRenderLength(t *testing.T) {
	c := NewOffline(44100, 132300)
	setup(c)
	out, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out[0]) != 132300 || len(out[1]) != 132300 {
		t.Fatalf("render length = %d/%d, want 132300", len(out[0]), len(out[1]))
	}
	if !c.Finished() {
		t.Fatalf("expected context to be finished")
	}
}

func TestRenderMatchesProcess(t *testing.T) {
	const frames = 22050
	off := NewOffline(44100, frames)
	setup(off)
	want, err := off.Render(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	rt := NewOffline(44100, frames)
	setup(rt)
	buf := make([]float32, 2*300) // not a multiple of the render quantum
	var got [2][]float32
	for !rt.Finished() {
		rt.Process(buf)
		for i := 0; i < len(buf)/2 && len(got[0]) < frames; i++ {
			got[0] = append(got[0], buf[2*i])
			got[1] = append(got[1], buf[2*i+1])
		}
	}
	var energy float64
	for i := 0; i < frames; i++ {
		if got[0][i] != want[0][i] || got[1][i] != want[1][i] {
			t.Fatalf("frame %d: process (%v, %v) != render (%v, %v)", i, got[0][i], got[1][i], want[0][i], want[1][i])
		}
		energy += float64(want[0][i] * want[0][i])
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestProcessPastEndIsSilent(t *testing.T) {
	c := NewOffline(44100, 10)
	c.Attach(effects.NewChain())
	c.Submit(0, tone(440, 0, 1))
	buf := make([]float32, 2*20)
	for i := range buf {
		buf[i] = 1
	}
	c.Process(buf)
	for i := 20; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("sample %d = %v past the end, want 0", i, buf[i])
		}
	}
	if got := c.CurrentTime(); got != 10.0/44100 {
		t.Fatalf("current time = %v, want %v", got, 10.0/44100)
	}
}

func TestSubmitDropsEndedVoices(t *testing.T) {
	c := NewRealtime(44100)
	id := c.Attach(effects.NewChain())
	c.Process(make([]float32, 2*4410)) // 0.1s
	c.Submit(id, tone(440, 0, 0.05), tone(440, 0.05, 0.2))
	if got := c.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	c.Submit(BusID(7), tone(440, 1, 2))
	if got := c.Pending(); got != 1 {
		t.Fatalf("pending after bad bus = %d, want 1", got)
	}
}

func TestCancelAllSilences(t *testing.T) {
	c := NewRealtime(44100)
	id := c.Attach(effects.NewChain())
	c.Submit(id, tone(440, 0, 1), tone(880, 0.5, 1))
	c.CancelAll()
	if got := c.Pending(); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
	buf := make([]float32, 2*1024)
	c.Process(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %v after cancel, want 0", i, s)
		}
	}
}

func TestVoicesArePrunedWhenDone(t *testing.T) {
	c := NewRealtime(44100)
	id := c.Attach(effects.NewChain())
	c.Submit(id, tone(440, 0, 0.01))
	c.Process(make([]float32, 2*1024))
	if got := c.Pending(); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
}

func TestRenderHonoursCancellation(t *testing.T) {
	c := NewOffline(44100, 44100*10)
	setup(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Render(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("render error = %v, want context.Canceled", err)
	}
}

func TestMasterStageApplies(t *testing.T) {
	c := NewOffline(44100, 4410)
	id := c.Attach(effects.NewChain())
	c.SetMaster(effects.NewGain(0))
	c.Submit(id, tone(440, 0, 0.1))
	out, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i, s := range out[0] {
		if s != 0 {
			t.Fatalf("sample %d = %v through muted master, want 0", i, s)
		}
	}
}

type endlessSource struct{ calls int }

func (s *endlessSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = 0.5
	}
}

func TestStreamEncodesFloat32(t *testing.T) {
	c := NewOffline(44100, 3)
	c.Attach(effects.NewChain())
	r := NewStream(c)
	p := make([]byte, 8*4)
	n, err := r.Read(p)
	if n != len(p) {
		t.Fatalf("read %d bytes, want %d", n, len(p))
	}
	if err == nil {
		t.Fatalf("expected EOF once the bounded context finished")
	}

	src := &endlessSource{}
	r = NewStream(src)
	n, err = r.Read(p[:7])
	if n != 0 || err != nil || src.calls != 0 {
		t.Fatalf("short read = %d, %v, calls %d; want 0, nil, 0", n, err, src.calls)
	}
	if _, err := r.Read(p); err != nil {
		t.Fatalf("read: %v", err)
	}
	if p[0] != 0 || p[1] != 0 || p[2] != 0 || p[3] != 0x3f {
		t.Fatalf("first sample bytes = % x, want 00 00 00 3f", p[:4])
	}
	r.Close()
	if n, err := r.Read(p); n != 0 || err != io.EOF {
		t.Fatalf("read after close = %d, %v; want 0, EOF", n, err)
	}
}
