// Package sonify sequences and synthesizes a three-track composition
// (melody, bass, drums) through fixed effect chains, for interactive
// playback and for deterministic WAV export.
package sonify

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	intaudio "github.com/cbegin/sonify-go/internal/audio"
	"github.com/cbegin/sonify-go/internal/composition"
	intfx "github.com/cbegin/sonify-go/internal/effects"
	intseq "github.com/cbegin/sonify-go/internal/sequencer"
	"github.com/cbegin/sonify-go/internal/tracks"
)

var (
	ErrNotInitialized   = errors.New("audio subsystem not initialized")
	ErrEmptyComposition = errors.New("composition is empty")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidNote      = composition.ErrInvalidNote
)

type (
	Composition   = composition.Composition
	Note          = composition.Note
	Hit           = composition.Hit
	Timbre        = composition.Timbre
	DrumKind      = composition.DrumKind
	Effects       = tracks.Effects
	MelodyEffects = tracks.MelodyEffects
	BassEffects   = tracks.BassEffects
	DrumEffects   = tracks.DrumEffects
	Controls      = tracks.Controls
	TrackID       = tracks.ID
	Output        = intaudio.Output
	OutputFactory = intaudio.OutputFactory
	SampleSource  = intaudio.SampleSource
)

const (
	Melody = tracks.Melody
	Bass   = tracks.Bass
	Drums  = tracks.Drums
)

const (
	Sine     = composition.Sine
	Square   = composition.Square
	Sawtooth = composition.Sawtooth
	Triangle = composition.Triangle
	Pulse    = composition.Pulse
	Organ    = composition.Organ

	Kick  = composition.Kick
	Snare = composition.Snare
	Hat   = composition.Hat

	GridQuantum = composition.GridQuantum
)

func ParseTimbre(name string) (Timbre, error)     { return composition.ParseTimbre(name) }
func ParseDrumKind(name string) (DrumKind, error) { return composition.ParseDrumKind(name) }
func ParseTrack(name string) (TrackID, error)     { return tracks.ParseID(name) }

func DefaultEffects() Effects   { return tracks.DefaultEffects() }
func DefaultControls() Controls { return tracks.DefaultControls() }

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind  int // EventLoopCompleted or EventPlaybackEnded
	Loops int
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

const (
	DefaultSampleRate = 44100
	DefaultExportName = "export.wav"
)

type Option func(*config)

type config struct {
	sampleRate    int
	output        OutputFactory
	seed          int64
	exportName    string
	loopPlayback  bool
	frameInterval time.Duration
}

func defaultConfig() config {
	return config{
		sampleRate:    DefaultSampleRate,
		output:        intaudio.NewPlayer,
		seed:          time.Now().UnixNano(),
		exportName:    DefaultExportName,
		loopPlayback:  true,
		frameInterval: intseq.DefaultFrameInterval,
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(cfg *config) {
		cfg.sampleRate = sampleRate
	}
}

// WithOutput replaces the device output used by Init.
func WithOutput(factory OutputFactory) Option {
	return func(cfg *config) {
		cfg.output = factory
	}
}

// WithSeed fixes the random source behind reverb impulses and percussion
// noise, which makes exports reproducible.
func WithSeed(seed int64) Option {
	return func(cfg *config) {
		cfg.seed = seed
	}
}

func WithExportName(name string) Option {
	return func(cfg *config) {
		cfg.exportName = name
	}
}

func WithLoopPlayback(enabled bool) Option {
	return func(cfg *config) {
		cfg.loopPlayback = enabled
	}
}

// WithFrameInterval sets the cadence of the playback scheduling callback.
func WithFrameInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.frameInterval = d
	}
}

// Engine owns the real-time audio context and the playback session.
type Engine struct {
	mu         sync.Mutex
	cfg        config
	rnd        *rand.Rand
	ctx        *intaudio.Context
	out        Output
	set        *tracks.Set
	sched      *intseq.Scheduler
	masterGain *intfx.Gain
	masterEQ   *intfx.EQ5Band
	volume     float64
	session    *intseq.Session
	cancelRun  context.CancelFunc
	runDone    chan struct{}
	fx         Effects
	ctl        Controls
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.output == nil {
		return nil, errors.New("output factory must not be nil")
	}
	return &Engine{
		cfg:        cfg,
		rnd:        rand.New(newLockedSource(cfg.seed)),
		masterGain: intfx.NewGain(1),
		masterEQ:   intfx.NewEQ5Band(cfg.sampleRate),
		volume:     1,
		fx:         tracks.DefaultEffects(),
		ctl:        tracks.DefaultControls(),
	}, nil
}

func (e *Engine) SampleRate() int { return e.cfg.sampleRate }

// Init opens the audio output and mounts the track chains. It is
// idempotent; later calls return nil without reopening anything.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		return nil
	}
	ctx := intaudio.NewRealtime(e.cfg.sampleRate)
	ctx.SetMaster(intfx.NewChain(e.masterGain, e.masterEQ))
	set := tracks.Build(ctx, e.rnd, e.fx, e.ctl)
	out, err := e.cfg.output(e.cfg.sampleRate, ctx)
	if err != nil {
		return err
	}
	e.ctx = ctx
	e.set = set
	e.sched = intseq.NewScheduler(ctx, set, e.rnd)
	e.out = out
	e.out.Play()
	return nil
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx != nil
}

// ready reports whether the context exists, logging the dropped operation
// otherwise. e.mu must be held.
func (e *Engine) ready(op string) bool {
	if e.ctx == nil {
		log.Printf("sonify: %s ignored: %v", op, ErrNotInitialized)
		return false
	}
	return true
}

// Play applies the effect and control snapshots and plays comp as cycles of
// duration seconds. Any previous playback is stopped first. An empty
// composition is a no-op, as is calling Play before Init.
func (e *Engine) Play(comp *Composition, duration float64, fx Effects, ctl Controls) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("play") {
		return nil
	}
	e.stopLocked()
	e.fx, e.ctl = fx, ctl
	e.set.ApplyMelody(fx.Melody)
	e.set.ApplyBass(fx.Bass)
	e.set.ApplyDrums(fx.Drums)
	e.set.ApplyControls(ctl)
	if comp == nil || comp.IsEmpty() {
		return nil
	}

	snapshot := comp.Clone()
	snapshot.Truncate(duration)
	ctx, sched := e.ctx, e.sched
	session := intseq.NewSession(intseq.Options{
		Duration: duration,
		Looping:  e.cfg.loopPlayback,
		Arm:      func() { sched.Schedule(ctx.CurrentTime(), snapshot) },
		Cancel:   ctx.CancelAll,
		OnEvent:  e.forwardEvent,
	})
	session.Start()

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.session = session
	e.cancelRun = cancel
	e.runDone = done
	go func() {
		defer close(done)
		session.Run(runCtx, e.cfg.frameInterval)
	}()
	return nil
}

func (e *Engine) forwardEvent(ev intseq.Event) {
	kind := EventLoopCompleted
	if ev.Kind == intseq.EventPlaybackEnded {
		kind = EventPlaybackEnded
	}
	e.sendEvent(PlaybackEvent{Kind: kind, Loops: ev.Loops})
}

func (e *Engine) sendEvent(ev PlaybackEvent) {
	e.eventChMu.Lock()
	ch := e.eventCh
	e.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Stop cancels every pending and sounding voice and ends the playback
// session.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return nil
	}
	e.stopLocked()
	e.ctx.CancelAll()
	return nil
}

func (e *Engine) stopLocked() {
	if e.session == nil {
		return
	}
	e.cancelRun()
	<-e.runDone
	wasPlaying := e.session.State() == intseq.Playing
	e.session.Stop()
	e.session = nil
	if wasPlaying {
		e.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	}
}

// Close stops playback and releases the audio output. The engine cannot be
// re-initialized afterwards.
func (e *Engine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil {
		return nil
	}
	err := e.out.Stop()
	e.out = nil
	return err
}

// Wait blocks until the current playback ends. When loop playback is
// enabled, Wait blocks until Stop is called.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.runDone
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events:
//   - EventLoopCompleted: one or more cycles completed (when looping)
//   - EventPlaybackEnded: playback finished or was stopped
//
// The channel is buffered (cap 8); receive in a goroutine. Only the most
// recent Watch() channel receives events.
func (e *Engine) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	e.eventChMu.Lock()
	e.eventCh = ch
	e.eventChMu.Unlock()
	return ch
}

func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.State() == intseq.Playing
}

// Position returns the normalized position within the current cycle.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.Position()
}

// PreviewNote sounds one melody note of the default preview length through
// the melody chain configured by fx.
func (e *Engine) PreviewNote(pitch float64, timbre Timbre, fx MelodyEffects) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("preview") {
		return
	}
	e.fx.Melody = fx
	e.set.ApplyMelody(fx)
	e.sched.PreviewNote(pitch, timbre, 0)
}

func (e *Engine) PreviewBass(pitch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("preview") {
		return
	}
	e.sched.PreviewBass(pitch)
}

func (e *Engine) PreviewDrum(kind DrumKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready("preview") {
		return
	}
	e.sched.PreviewDrum(kind)
}

// UpdateMelodyEffects applies fx to the live melody chain.
func (e *Engine) UpdateMelodyEffects(fx MelodyEffects) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fx.Melody = fx
	if e.ready("update melody effects") {
		e.set.ApplyMelody(fx)
	}
}

func (e *Engine) UpdateBassEffects(fx BassEffects) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fx.Bass = fx
	if e.ready("update bass effects") {
		e.set.ApplyBass(fx)
	}
}

func (e *Engine) UpdateDrumEffects(fx DrumEffects) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fx.Drums = fx
	if e.ready("update drum effects") {
		e.set.ApplyDrums(fx)
	}
}

// SetTrackVolume sets the gain of one track.
func (e *Engine) SetTrackVolume(id TrackID, level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch id {
	case Melody:
		e.ctl.MelodyVolume = level
	case Bass:
		e.ctl.BassVolume = level
	case Drums:
		e.ctl.DrumVolume = level
	}
	if e.ready("set track volume") {
		e.set.SetVolume(id, level)
	}
}

// SetBassWeight moves the bass low-pass between 1500 Hz (0) and 80 Hz (1).
func (e *Engine) SetBassWeight(weight float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctl.BassWeight = weight
	if e.ready("set bass weight") {
		e.set.SetBassWeight(weight)
	}
}

// SetDrumTone sets the tone of subsequently scheduled percussion hits.
func (e *Engine) SetDrumTone(tone float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctl.DrumTone = tone
	if e.ready("set drum tone") {
		e.set.SetDrumTone(tone)
	}
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (e *Engine) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	if e.ctx != nil {
		e.ctx.Update(func() { e.masterGain.SetLevel(float32(volume)) })
	} else {
		e.masterGain.SetLevel(float32(volume))
	}
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (e *Engine) SetEQBand(band int, gain float32) {
	e.masterEQ.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (e *Engine) EQBand(band int) float32 {
	return e.masterEQ.Gain(band)
}

// lockedSource serializes a rand.Source shared by the control thread and
// the playback callback.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func newLockedSource(seed int64) *lockedSource {
	return &lockedSource{src: rand.NewSource(seed).(rand.Source64)}
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}
