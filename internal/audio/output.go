package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource reports when a bounded source has nothing left to play.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Output is a device stream pulling from a SampleSource.
type Output interface {
	Play()
	Pause()
	Position() time.Duration
	Stop() error
}

// OutputFactory opens an Output for a source.
type OutputFactory func(sampleRate int, source SampleSource) (Output, error)

const (
	frameBytes    = 8 // two little-endian float32 samples
	deviceLatency = 20 * time.Millisecond
)

// Stream encodes a SampleSource as the F32 byte stream read by the device.
// Reads shorter than one frame return nothing. A finished source or a
// closed stream reports io.EOF.
type Stream struct {
	mu     sync.Mutex
	source SampleSource
	frames []float32
	closed bool
}

func NewStream(source SampleSource) *Stream {
	return &Stream{source: source}
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.EOF
	}

	n := len(p) / frameBytes
	if n == 0 {
		return 0, nil
	}
	if cap(s.frames) < 2*n {
		s.frames = make([]float32, 2*n)
	}
	s.frames = s.frames[:2*n]
	s.source.Process(s.frames)
	for i, v := range s.frames {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	if src, ok := s.source.(FinishingSource); ok && src.Finished() {
		return n * frameBytes, io.EOF
	}
	return n * frameBytes, nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// device is the process-wide ebiten context. ebiten allows one per process,
// so every Player must share its sample rate.
type device struct {
	mu   sync.Mutex
	ctx  *ebitaudio.Context
	rate int
}

var sharedDevice device

func (d *device) context(sampleRate int) (*ebitaudio.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		d.ctx = ebitaudio.NewContext(sampleRate)
		d.rate = sampleRate
	}
	if d.rate != sampleRate {
		return nil, fmt.Errorf("audio device open at %d Hz, cannot play at %d Hz", d.rate, sampleRate)
	}
	return d.ctx, nil
}

// Player is the ebiten-backed Output.
type Player struct {
	player *ebitaudio.Player
	stream *Stream
}

// NewPlayer opens a device stream for source. It satisfies OutputFactory.
func NewPlayer(sampleRate int, source SampleSource) (Output, error) {
	ctx, err := sharedDevice.context(sampleRate)
	if err != nil {
		return nil, err
	}
	stream := NewStream(source)
	pl, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, err
	}
	pl.SetBufferSize(deviceLatency)
	return &Player{player: pl, stream: stream}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

// Position is what the listener has heard so far.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Stop() error {
	p.player.Pause()
	err := p.player.Close()
	p.stream.Close()
	return err
}
