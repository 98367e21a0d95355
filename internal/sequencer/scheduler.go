// Package sequencer turns a composition into scheduled voices and drives
// looping playback from a per-frame callback.
package sequencer

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cbegin/sonify-go/internal/audio"
	"github.com/cbegin/sonify-go/internal/composition"
	"github.com/cbegin/sonify-go/internal/synth"
	"github.com/cbegin/sonify-go/internal/tracks"
)

const (
	MelodyPeak  = 0.25
	BassPeak    = 0.35
	PreviewPeak = 0.2

	Attack  = 0.005
	Release = 0.01

	// MergeTolerance is the largest gap (exclusive) between two notes of
	// the same pitch and timbre that still sustains them as one voice.
	MergeTolerance = 0.001

	// PreviewDuration is the default length of a previewed note.
	PreviewDuration = 0.2
	// previewRelease is the share of a preview spent fading out.
	previewRelease = 0.7
)

// Target accepts time-stamped voices.
type Target interface {
	SampleRate() int
	CurrentTime() float64
	Submit(id audio.BusID, voices ...synth.Voice)
}

// Merge joins notes of equal pitch and timbre that follow each other
// without a gap into single sustained notes, each spanning from the first
// start to the last end. Groups keep the order in which they first appear;
// each group is in time order.
func Merge(notes []composition.Note) []composition.Note {
	type key struct {
		pitch  float64
		timbre composition.Timbre
	}
	var order []key
	groups := make(map[key][]composition.Note)
	for _, n := range notes {
		k := key{n.Pitch, n.Timbre}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], n)
	}

	merged := make([]composition.Note, 0, len(notes))
	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Time < g[j].Time })
		cur := g[0]
		for _, next := range g[1:] {
			if math.Abs(next.Time-cur.End()) < MergeTolerance {
				cur.Duration = math.Max(cur.Duration, next.End()-cur.Time)
				continue
			}
			merged = append(merged, cur)
			cur = next
		}
		merged = append(merged, cur)
	}
	return merged
}

// Scheduler submits voices for a composition to the buses of a track set.
type Scheduler struct {
	target Target
	tracks *tracks.Set
	rnd    *rand.Rand
}

// NewScheduler returns a scheduler for set mounted on target. rnd feeds the
// percussion noise.
func NewScheduler(target Target, set *tracks.Set, rnd *rand.Rand) *Scheduler {
	return &Scheduler{target: target, tracks: set, rnd: rnd}
}

// Schedule submits one full cycle of comp with its time origin at origin
// seconds and returns the number of voices submitted.
func (s *Scheduler) Schedule(origin float64, comp *composition.Composition) int {
	n := s.notes(tracks.Melody, origin, comp.Melody, MelodyPeak, "")
	n += s.notes(tracks.Bass, origin, comp.Bass, BassPeak, composition.Sawtooth)
	n += s.hits(origin, comp.Drums)
	return n
}

func (s *Scheduler) notes(id tracks.ID, origin float64, notes []composition.Note, peak float64, fallback composition.Timbre) int {
	merged := Merge(notes)
	if len(merged) == 0 {
		return 0
	}
	sr := s.target.SampleRate()
	voices := make([]synth.Voice, 0, len(merged))
	for _, n := range merged {
		timbre := n.Timbre
		if timbre == "" && fallback != "" {
			timbre = fallback
		}
		start := origin + n.Time
		o := synth.NewOsc(sr, timbre, n.Pitch, start, start+n.Duration)
		o.Envelope(peak, Attack, Release)
		voices = append(voices, o)
	}
	s.target.Submit(s.tracks.Bus(id), voices...)
	return len(voices)
}

func (s *Scheduler) hits(origin float64, hits []composition.Hit) int {
	if len(hits) == 0 {
		return 0
	}
	sr := s.target.SampleRate()
	tone := s.tracks.DrumTone()
	voices := make([]synth.Voice, 0, len(hits))
	for _, h := range hits {
		voices = append(voices, synth.Drum(sr, s.rnd, h.Kind, tone, origin+h.Time))
	}
	s.target.Submit(s.tracks.Bus(tracks.Drums), voices...)
	return len(voices)
}

// PreviewNote sounds a single melody note now. A non-positive duration uses
// PreviewDuration.
func (s *Scheduler) PreviewNote(pitch float64, timbre composition.Timbre, duration float64) {
	if duration <= 0 {
		duration = PreviewDuration
	}
	now := s.target.CurrentTime()
	o := synth.NewOsc(s.target.SampleRate(), timbre, pitch, now, now+duration)
	o.Envelope(PreviewPeak, Attack, duration*previewRelease)
	s.target.Submit(s.tracks.Bus(tracks.Melody), o)
}

// PreviewBass sounds a single bass note of one grid step now.
func (s *Scheduler) PreviewBass(pitch float64) {
	now := s.target.CurrentTime()
	o := synth.NewOsc(s.target.SampleRate(), composition.Sawtooth, pitch, now, now+composition.GridQuantum)
	o.Envelope(BassPeak, Attack, Release)
	s.target.Submit(s.tracks.Bus(tracks.Bass), o)
}

// PreviewDrum fires one percussion hit now.
func (s *Scheduler) PreviewDrum(kind composition.DrumKind) {
	now := s.target.CurrentTime()
	v := synth.Drum(s.target.SampleRate(), s.rnd, kind, s.tracks.DrumTone(), now)
	s.target.Submit(s.tracks.Bus(tracks.Drums), v)
}
