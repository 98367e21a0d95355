package sonify

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	intaudio "github.com/cbegin/sonify-go/internal/audio"
	intfx "github.com/cbegin/sonify-go/internal/effects"
	"github.com/cbegin/sonify-go/internal/pcm"
	intseq "github.com/cbegin/sonify-go/internal/sequencer"
	"github.com/cbegin/sonify-go/internal/tracks"
)

// RenderFrames returns the length in frames of a render of duration seconds.
func RenderFrames(duration float64, sampleRate int) int64 {
	return int64(math.Ceil(duration * float64(sampleRate)))
}

// Render mounts the track chains on a bounded offline context and renders
// one cycle of comp, starting at time 0, to planar stereo samples. Every
// render draws from a fresh random source seeded like the engine, so equal
// inputs render equal samples. It stops any interactive playback.
func (e *Engine) Render(ctx context.Context, comp *Composition, duration float64, fx Effects, ctl Controls) ([2][]float32, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return [2][]float32{}, ErrInvalidDuration
	}
	if comp == nil || comp.IsEmpty() {
		return [2][]float32{}, ErrEmptyComposition
	}
	if err := e.Stop(); err != nil {
		return [2][]float32{}, err
	}

	sr := e.cfg.sampleRate
	off := intaudio.NewOffline(sr, RenderFrames(duration, sr))
	off.SetMaster(intfx.NewChain(intfx.NewGain(float32(e.MasterVolume())), e.masterEQCopy()))
	rnd := rand.New(rand.NewSource(e.cfg.seed))
	set := tracks.Build(off, rnd, fx, ctl)

	snapshot := comp.Clone()
	snapshot.Truncate(duration)
	intseq.NewScheduler(off, set, rnd).Schedule(0, snapshot)
	return off.Render(ctx)
}

func (e *Engine) masterEQCopy() *intfx.EQ5Band {
	eq := intfx.NewEQ5Band(e.cfg.sampleRate)
	for band := 0; band < 5; band++ {
		eq.SetGain(band, e.masterEQ.Gain(band))
	}
	return eq
}

// Export renders comp and encodes it as a 16-bit stereo WAV file.
func (e *Engine) Export(ctx context.Context, comp *Composition, duration float64, fx Effects, ctl Controls) ([]byte, error) {
	out, err := e.Render(ctx, comp, duration, fx, ctl)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return pcm.Encode(out[:], e.cfg.sampleRate), nil
}

// ExportToFile renders comp and writes the WAV file into dir under the
// engine's export name. It returns the path written.
func (e *Engine) ExportToFile(ctx context.Context, dir string, comp *Composition, duration float64, fx Effects, ctl Controls) (string, error) {
	wav, err := e.Export(ctx, comp, duration, fx, ctl)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, e.cfg.exportName)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
