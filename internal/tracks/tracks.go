// Package tracks builds the three fixed signal chains (melody, bass, drums)
// on a rendering target and maps parameter snapshots onto their units.
package tracks

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/cbegin/sonify-go/internal/audio"
	"github.com/cbegin/sonify-go/internal/effects"
)

// ID names a track.
type ID int

const (
	Melody ID = iota
	Bass
	Drums
)

var idNames = [...]string{"melody", "bass", "drums"}

func (id ID) String() string {
	if id >= 0 && int(id) < len(idNames) {
		return idNames[id]
	}
	return "unknown"
}

// ParseID maps a track name to its ID.
func ParseID(name string) (ID, error) {
	for i, n := range idNames {
		if n == name {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown track %q", name)
}

const (
	bassToneHz     = 1200.0
	weightTopHz    = 1500.0
	weightBottomHz = 80.0
)

// Target is a rendering context the chains are mounted on.
type Target interface {
	SampleRate() int
	Attach(chain audio.Processor) audio.BusID
	Update(fn func())
}

// Track is one mounted chain.
type Track struct {
	ID     ID
	Bus    audio.BusID
	Chain  *effects.Chain
	volume *effects.Gain
	weight *effects.ResonantFilter
}

// Unit returns the track's unit of the given kind, or nil.
func (t *Track) Unit(kind effects.Kind) *effects.Unit { return t.Chain.Unit(kind) }

// Volume returns the track gain.
func (t *Track) Volume() float32 { return t.volume.Level() }

// Set holds the three tracks of one rendering target.
type Set struct {
	target     Target
	sampleRate int
	tracks     [3]*Track
	tone       atomic.Uint64 // float64 bits; read by the scheduler goroutine
}

// Build mounts the melody, bass and drum chains on target, in that order,
// and applies the snapshots. Both real-time and offline rendering go
// through this function. rnd seeds the reverb impulses.
func Build(target Target, rnd *rand.Rand, fx Effects, ctl Controls) *Set {
	sr := target.SampleRate()
	s := &Set{target: target, sampleRate: sr}

	mel := &Track{ID: Melody, volume: effects.NewGain(1)}
	mel.Chain = effects.NewChain(
		mel.volume,
		effects.NewUnit(effects.KindDistortion, effects.NewDistortion(sr)),
		effects.NewUnit(effects.KindPanner, effects.NewPanner()),
		effects.NewUnit(effects.KindPhaser, effects.NewPhaser(sr)),
		effects.NewUnit(effects.KindFlanger, effects.NewFlanger(sr)),
		effects.NewUnit(effects.KindChorus, effects.NewChorus(sr)),
		effects.NewUnit(effects.KindTremolo, effects.NewTremolo(sr)),
		effects.NewUnit(effects.KindDelay, effects.NewDelay(sr)),
		effects.NewUnit(effects.KindReverb, effects.NewReverb(sr, rnd)),
	)

	bass := &Track{ID: Bass, volume: effects.NewGain(1), weight: effects.NewResonantFilter(sr)}
	dist := effects.NewDistortion(sr)
	dist.SetTone(bassToneHz)
	bass.Chain = effects.NewChain(
		bass.weight,
		effects.NewUnit(effects.KindDistortion, dist),
		effects.NewUnit(effects.KindChorus, effects.NewChorus(sr)),
		effects.NewInlineUnit(effects.KindCompressor, effects.NewCompressor(sr)),
		effects.NewUnit(effects.KindReverb, effects.NewReverb(sr, rnd)),
		bass.volume,
	)

	drums := &Track{ID: Drums, volume: effects.NewGain(1)}
	drums.Chain = effects.NewChain(
		drums.volume,
		effects.NewInlineUnit(effects.KindFilter, effects.NewResonantFilter(sr)),
		effects.NewInlineUnit(effects.KindCompressor, effects.NewCompressor(sr)),
		effects.NewUnit(effects.KindDelay, effects.NewDelay(sr)),
		effects.NewUnit(effects.KindReverb, effects.NewReverb(sr, rnd)),
	)

	s.tracks = [3]*Track{mel, bass, drums}
	for _, t := range s.tracks {
		t.Bus = target.Attach(t.Chain)
	}
	s.ApplyMelody(fx.Melody)
	s.ApplyBass(fx.Bass)
	s.ApplyDrums(fx.Drums)
	s.ApplyControls(ctl)
	return s
}

// Track returns the track with the given id.
func (s *Set) Track(id ID) *Track {
	if id < 0 || int(id) >= len(s.tracks) {
		return nil
	}
	return s.tracks[id]
}

// Bus returns the bus a track is mounted on.
func (s *Set) Bus(id ID) audio.BusID { return s.tracks[id].Bus }

// DrumTone returns the tone used for new percussion hits.
func (s *Set) DrumTone() float64 { return math.Float64frombits(s.tone.Load()) }

// ApplyControls sets the three volumes, the bass weight and the drum tone.
func (s *Set) ApplyControls(ctl Controls) {
	s.SetVolume(Melody, ctl.MelodyVolume)
	s.SetVolume(Bass, ctl.BassVolume)
	s.SetVolume(Drums, ctl.DrumVolume)
	s.SetBassWeight(ctl.BassWeight)
	s.SetDrumTone(ctl.DrumTone)
}

func (s *Set) SetVolume(id ID, level float64) {
	t := s.Track(id)
	if t == nil {
		return
	}
	s.target.Update(func() { t.volume.SetLevel(float32(math.Max(0, level))) })
}

// WeightCutoff maps a bass weight in [0, 1] onto the low-pass cutoff,
// exponentially from 1500 Hz down to 80 Hz.
func WeightCutoff(weight float64) float64 {
	w := math.Max(0, math.Min(1, weight))
	return weightTopHz * math.Pow(weightBottomHz/weightTopHz, w)
}

func (s *Set) SetBassWeight(weight float64) {
	f := s.tracks[Bass].weight
	s.target.Update(func() { f.SetCutoff(WeightCutoff(weight), 1) })
}

func (s *Set) SetDrumTone(tone float64) {
	s.tone.Store(math.Float64bits(math.Max(0, math.Min(1, tone))))
}

// reverbMix routes a reverb unit: wet at the mix level and the rest dry
// while active, fully dry otherwise.
func reverbMix(u *effects.Unit, p Reverb) {
	if p.Active {
		u.SetMix(float32(p.Wet), float32(1-p.Wet))
		u.Effector().(*effects.Reverb).SetDecay(p.Decay)
	} else {
		u.SetMix(0, 1)
	}
}

func delayParams(u *effects.Unit, p Delay) {
	u.SetActive(p.Active)
	d := u.Effector().(*effects.Delay)
	d.SetTime(p.Time)
	d.SetFeedback(float32(p.Feedback))
}

func compressorParams(u *effects.Unit, p Compressor) {
	c := u.Effector().(*effects.Compressor)
	if p.Active {
		c.Set(p.Threshold, p.Ratio, p.Attack, p.Release)
	} else {
		c.Disable()
	}
}

func chorusParams(m *effects.ModulatedDelay, p Chorus) {
	m.SetRate(p.Rate)
	m.SetDepth(p.Depth / 1000)
	m.SetBase(p.Delay / 1000)
}

func (s *Set) ApplyMelody(p MelodyEffects) {
	t := s.tracks[Melody]
	s.target.Update(func() {
		u := t.Unit(effects.KindDistortion)
		u.SetActive(p.Distortion.Active)
		if p.Distortion.Active {
			d := u.Effector().(*effects.Distortion)
			d.SetDrive(p.Distortion.Drive)
			d.SetTone(p.Distortion.Tone)
			d.SetOutput(float32(p.Distortion.Output))
		}

		u = t.Unit(effects.KindPanner)
		u.SetActive(p.Panner.Active)
		u.Effector().(*effects.Panner).SetPan(p.Panner.Pan)

		u = t.Unit(effects.KindPhaser)
		u.SetActive(p.Phaser.Active)
		ph := u.Effector().(*effects.Phaser)
		ph.SetRate(p.Phaser.Frequency)
		ph.SetDepth(p.Phaser.Depth)
		ph.SetFeedback(p.Phaser.Feedback)

		u = t.Unit(effects.KindFlanger)
		u.SetActive(p.Flanger.Active)
		fl := u.Effector().(*effects.ModulatedDelay)
		depth := p.Flanger.Depth / 1000
		fl.SetRate(p.Flanger.Rate)
		fl.SetDepth(depth)
		fl.SetBase(math.Max(p.Flanger.Delay/1000, depth))
		fl.SetFeedback(float32(p.Flanger.Feedback))

		u = t.Unit(effects.KindChorus)
		u.SetActive(p.Chorus.Active)
		chorusParams(u.Effector().(*effects.ModulatedDelay), p.Chorus)

		u = t.Unit(effects.KindTremolo)
		u.SetActive(p.Tremolo.Active)
		tr := u.Effector().(*effects.Tremolo)
		tr.SetRate(p.Tremolo.Frequency)
		tr.SetDepth(p.Tremolo.Depth)

		delayParams(t.Unit(effects.KindDelay), p.Delay)
		reverbMix(t.Unit(effects.KindReverb), p.Reverb)
	})
}

func (s *Set) ApplyBass(p BassEffects) {
	t := s.tracks[Bass]
	s.target.Update(func() {
		u := t.Unit(effects.KindDistortion)
		u.SetActive(p.Distortion.Active)
		if p.Distortion.Active {
			u.Effector().(*effects.Distortion).SetDrive(p.Distortion.Drive / 2)
		}

		u = t.Unit(effects.KindChorus)
		if p.Chorus.Active {
			mix := math.Max(0, math.Min(1, p.Chorus.Mix))
			u.SetMix(float32(mix), float32(1-mix))
		} else {
			u.SetMix(0, 1)
		}
		chorusParams(u.Effector().(*effects.ModulatedDelay), p.Chorus.Chorus)

		compressorParams(t.Unit(effects.KindCompressor), p.Compressor)
		reverbMix(t.Unit(effects.KindReverb), p.Reverb)
	})
}

func (s *Set) ApplyDrums(p DrumEffects) {
	t := s.tracks[Drums]
	s.target.Update(func() {
		f := t.Unit(effects.KindFilter).Effector().(*effects.ResonantFilter)
		if p.Filter.Active {
			f.SetCutoff(p.Filter.Frequency, p.Filter.Q)
		} else {
			f.Disable()
		}
		compressorParams(t.Unit(effects.KindCompressor), p.Compressor)
		delayParams(t.Unit(effects.KindDelay), p.Delay)
		reverbMix(t.Unit(effects.KindReverb), p.Reverb)
	})
}
