package sequencer

import (
	"context"
	"math"
	"sync"
	"time"
)

// State is the playback state of a Session.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// EventKind identifies session lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

// Event reports a completed cycle or the end of playback. Loops is the
// number of cycles completed so far.
type Event struct {
	Kind  EventKind
	Loops int
}

// DefaultFrameInterval is the callback cadence used by Run.
const DefaultFrameInterval = 16 * time.Millisecond

// Options configures a Session.
type Options struct {
	// Duration is the cycle length in seconds.
	Duration float64
	Looping  bool
	// Arm submits one full cycle, time-stamped from the audio clock's now.
	Arm func()
	// Cancel silences every pending voice.
	Cancel  func()
	OnEvent func(Event)
}

// Session is the per-frame playback state machine. Frame times are in
// milliseconds on any monotonic clock.
type Session struct {
	mu        sync.Mutex
	opts      Options
	state     State
	originSet bool
	origin    float64 // ms
	position  float64
	loops     int
	arms      int
}

func NewSession(opts Options) *Session {
	return &Session{opts: opts}
}

// Start enters Playing and clears the loop origin; the next Frame arms the
// first cycle.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Playing
	s.originSet = false
	s.position = 0
	s.loops = 0
}

// Stop cancels every pending voice and resets the position.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	s.state = Stopped
	s.originSet = false
	s.position = 0
	if s.opts.Cancel != nil {
		s.opts.Cancel()
	}
}

// Frame advances the state machine to nowMs.
func (s *Session) Frame(nowMs float64) {
	s.mu.Lock()
	var events []Event
	defer func() {
		s.mu.Unlock()
		if s.opts.OnEvent != nil {
			for _, ev := range events {
				s.opts.OnEvent(ev)
			}
		}
	}()

	if s.state != Playing {
		return
	}
	if !s.originSet {
		s.origin = nowMs
		s.originSet = true
		s.arm()
	}
	cycle := s.opts.Duration * 1000
	elapsed := nowMs - s.origin
	if cycle <= 0 || elapsed >= cycle {
		if !s.opts.Looping || cycle <= 0 {
			s.stopLocked()
			events = append(events, Event{Kind: EventPlaybackEnded, Loops: s.loops})
			return
		}
		n := math.Floor(elapsed / cycle)
		s.origin += n * cycle
		s.loops += int(n)
		s.arm()
		events = append(events, Event{Kind: EventLoopCompleted, Loops: s.loops})
		elapsed = nowMs - s.origin
	}
	s.position = elapsed / cycle
}

func (s *Session) arm() {
	s.arms++
	if s.opts.Arm != nil {
		s.opts.Arm()
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the normalized position in the current cycle, in [0, 1).
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Loops returns the number of completed cycles since Start.
func (s *Session) Loops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loops
}

// Arms returns how many cycles have been submitted since the session was
// created.
func (s *Session) Arms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arms
}

func (s *Session) SetLooping(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Looping = enabled
}

// Run calls Frame on every tick of interval until ctx is done or the
// session stops. Frame times are measured from the call to Run.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Frame(0)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Frame(float64(now.Sub(start)) / float64(time.Millisecond))
			if s.State() != Playing {
				return
			}
		}
	}
}
