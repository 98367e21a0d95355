package sonify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbegin/sonify-go/internal/pcm"
)

type fakeOutput struct {
	src     SampleSource
	playing bool
	stopped bool
}

func (o *fakeOutput) Play()                   { o.playing = true }
func (o *fakeOutput) Pause()                  { o.playing = false }
func (o *fakeOutput) Position() time.Duration { return 0 }
func (o *fakeOutput) Stop() error {
	o.stopped = true
	return nil
}

type fakeDevice struct {
	opens int
	out   *fakeOutput
}

func (d *fakeDevice) open(sampleRate int, src SampleSource) (Output, error) {
	d.opens++
	d.out = &fakeOutput{src: src}
	return d.out, nil
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	opts = append([]Option{WithOutput(dev.open), WithSeed(42), WithFrameInterval(time.Hour)}, opts...)
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, dev
}

func testComposition() *Composition {
	comp := &Composition{}
	for i, p := range []float64{440, 440, 523.26, 659.26} {
		comp.AddMelody(Note{ID: "m" + string(rune('a'+i)), Time: float64(i) * GridQuantum, Pitch: p, Duration: GridQuantum, Timbre: Pulse})
	}
	comp.AddBass(Note{ID: "b", Time: 0, Pitch: 65.41, Duration: GridQuantum})
	comp.AddDrum(Hit{ID: "k", Time: 0, Kind: Kick, Duration: GridQuantum})
	comp.AddDrum(Hit{ID: "s", Time: 0.25, Kind: Snare, Duration: GridQuantum})
	comp.AddDrum(Hit{ID: "h", Time: 0.125, Kind: Hat, Duration: GridQuantum})
	return comp
}

func richEffects() Effects {
	fx := DefaultEffects()
	fx.Melody.Reverb.Active = true
	fx.Melody.Phaser.Active = true
	fx.Melody.Tremolo.Active = true
	fx.Bass.Distortion.Active = true
	fx.Bass.Chorus.Active = true
	fx.Drums.Delay.Active = true
	fx.Drums.Reverb.Active = true
	fx.Drums.Compressor.Active = true
	return fx
}

func waitPending(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.ctx.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("playback never armed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	e, dev := newTestEngine(t)
	for i := 0; i < 3; i++ {
		if err := e.Init(); err != nil {
			t.Fatalf("init: %v", err)
		}
	}
	if dev.opens != 1 {
		t.Fatalf("output opened %d times, want 1", dev.opens)
	}
	if !dev.out.playing {
		t.Fatalf("output not started")
	}
}

func TestOperationsBeforeInitAreNoOps(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	e, dev := newTestEngine(t)
	if err := e.Play(testComposition(), 1, DefaultEffects(), DefaultControls()); err != nil {
		t.Fatalf("play before init: %v", err)
	}
	e.PreviewNote(440, Sine, DefaultEffects().Melody)
	e.PreviewDrum(Kick)
	e.SetBassWeight(0.3)
	if e.Playing() || dev.opens != 0 {
		t.Fatalf("engine acted before init")
	}
	if !strings.Contains(buf.String(), ErrNotInitialized.Error()) {
		t.Fatalf("expected a not-initialized diagnostic, got %q", buf.String())
	}
}

func TestPlayRejectsBadDuration(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Play(testComposition(), 0, DefaultEffects(), DefaultControls()); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("play error = %v, want ErrInvalidDuration", err)
	}
}

func TestStopCancelsVoices(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	events := e.Watch()
	if err := e.Play(testComposition(), 1, DefaultEffects(), DefaultControls()); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitPending(t, e)
	if !e.Playing() {
		t.Fatalf("expected playing")
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := e.ctx.Pending(); got != 0 {
		t.Fatalf("pending after stop = %d, want 0", got)
	}
	if e.Playing() || e.Position() != 0 {
		t.Fatalf("playing = %v position = %v after stop", e.Playing(), e.Position())
	}
	select {
	case ev := <-events:
		if ev.Kind != EventPlaybackEnded {
			t.Fatalf("event kind = %d, want EventPlaybackEnded", ev.Kind)
		}
	default:
		t.Fatalf("expected a playback-ended event")
	}
}

func TestPreviewSchedulesVoices(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	e.PreviewNote(440, Organ, DefaultEffects().Melody)
	e.PreviewBass(55)
	e.PreviewDrum(Hat)
	if got := e.ctx.Pending(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}
}

func TestInteractiveMatchesExport(t *testing.T) {
	const duration = 0.5
	comp, fx, ctl := testComposition(), richEffects(), DefaultControls()
	ctl.BassWeight = 0.2

	offline, _ := newTestEngine(t)
	want, err := offline.Render(context.Background(), comp, duration, fx, ctl)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	live, dev := newTestEngine(t, WithLoopPlayback(false))
	if err := live.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := live.Play(comp, duration, fx, ctl); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitPending(t, live)
	defer live.Stop()

	frames := len(want[0])
	buf := make([]float32, 2*512)
	var energy float64
	for pos := 0; pos < frames; pos += 512 {
		dev.out.src.Process(buf)
		for i := 0; i < 512 && pos+i < frames; i++ {
			l, r := buf[2*i], buf[2*i+1]
			if l != want[0][pos+i] || r != want[1][pos+i] {
				t.Fatalf("frame %d: live (%v, %v) != export (%v, %v)", pos+i, l, r, want[0][pos+i], want[1][pos+i])
			}
			energy += float64(l * l)
		}
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestBassAudibleAtEveryWeight(t *testing.T) {
	comp := &Composition{}
	for i := 0; i < 4; i++ {
		comp.AddBass(Note{ID: "b" + string(rune('a'+i)), Time: float64(i) * GridQuantum, Pitch: 65.41, Duration: GridQuantum})
	}
	for _, w := range []float64{0, 0.5, 1} {
		e, _ := newTestEngine(t)
		ctl := DefaultControls()
		ctl.BassWeight = w
		out, err := e.Render(context.Background(), comp, 0.5, DefaultEffects(), ctl)
		if err != nil {
			t.Fatalf("weight %v: render: %v", w, err)
		}
		var energy float64
		for _, v := range out[0] {
			energy += float64(v) * float64(v)
		}
		if energy < 1e-3 {
			t.Errorf("weight %v: bass energy = %g, want audible", w, energy)
		}
	}
}

func TestDrumToneWhilePlaying(t *testing.T) {
	e, dev := newTestEngine(t, WithFrameInterval(time.Millisecond))
	if err := e.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	comp := &Composition{}
	comp.AddDrum(Hit{ID: "k", Time: 0, Kind: Kick, Duration: GridQuantum})
	if err := e.Play(comp, 0.01, DefaultEffects(), DefaultControls()); err != nil {
		t.Fatalf("play: %v", err)
	}
	defer e.Stop()
	buf := make([]float32, 2*128)
	for i := 0; i < 200; i++ {
		e.SetDrumTone(float64(i%10) / 10)
		dev.out.src.Process(buf)
	}
}

func TestExportLength(t *testing.T) {
	e, _ := newTestEngine(t)
	wav, err := e.Export(context.Background(), testComposition(), 3, DefaultEffects(), DefaultControls())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	info, err := pcm.Inspect(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Channels != 2 || info.SampleRate != 44100 || info.BitDepth != 16 || info.Format != pcm.FormatPCM {
		t.Fatalf("info = %+v", info)
	}
	if got := info.Frames(); got != 132300 {
		t.Fatalf("frames = %d, want 132300", got)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	render := func() []byte {
		e, _ := newTestEngine(t)
		wav, err := e.Export(context.Background(), testComposition(), 1, richEffects(), DefaultControls())
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		return wav
	}
	if !bytes.Equal(render(), render()) {
		t.Fatalf("exports with the same seed differ")
	}
}

func TestExportToFile(t *testing.T) {
	e, _ := newTestEngine(t)
	dir := t.TempDir()
	path, err := e.ExportToFile(context.Background(), dir, testComposition(), 0.5, DefaultEffects(), DefaultControls())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if want := filepath.Join(dir, DefaultExportName); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	info, err := pcm.Inspect(f)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if got := info.Frames(); got != 22050 {
		t.Fatalf("frames = %d, want 22050", got)
	}
}

func TestExportFailures(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Export(context.Background(), &Composition{}, 1, DefaultEffects(), DefaultControls()); !errors.Is(err, ErrEmptyComposition) {
		t.Errorf("empty export error = %v, want ErrEmptyComposition", err)
	}
	if _, err := e.Export(context.Background(), testComposition(), -1, DefaultEffects(), DefaultControls()); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("negative duration error = %v, want ErrInvalidDuration", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Export(ctx, testComposition(), 1, DefaultEffects(), DefaultControls()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled export error = %v, want context.Canceled", err)
	}
}

func TestMasterVolumeRuntimeAPI(t *testing.T) {
	e, _ := newTestEngine(t)
	if got := e.MasterVolume(); got != 1 {
		t.Fatalf("default master volume = %v, want 1", got)
	}
	e.SetMasterVolume(0.35)
	if got := e.MasterVolume(); got != 0.35 {
		t.Fatalf("master volume = %v, want 0.35", got)
	}
	e.SetMasterVolume(-2)
	if got := e.MasterVolume(); got != 0 {
		t.Fatalf("master volume should clamp to 0, got %v", got)
	}
}

func TestEQBandRuntimeAPI(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetEQBand(2, 1.5)
	if got := e.EQBand(2); got != 1.5 {
		t.Fatalf("band 2 gain = %v, want 1.5", got)
	}
	if got := e.EQBand(9); got != 1 {
		t.Fatalf("out-of-range band gain = %v, want 1", got)
	}
}
