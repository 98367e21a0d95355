package composition

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// ColumnsPerSecond is the editing grid resolution.
	ColumnsPerSecond = 8
	// GridQuantum is the fixed duration of a grid cell in seconds.
	GridQuantum = 1.0 / ColumnsPerSecond
	// SlotEpsilon is the time tolerance used when comparing slots.
	SlotEpsilon = 0.001
)

var ErrInvalidNote = errors.New("invalid note")

// Timbre selects the oscillator shape of a tonal voice.
type Timbre string

const (
	Sine     Timbre = "sine"
	Square   Timbre = "square"
	Sawtooth Timbre = "sawtooth"
	Triangle Timbre = "triangle"
	Pulse    Timbre = "pulse"
	Organ    Timbre = "organ"
)

var timbres = []Timbre{Sine, Square, Sawtooth, Triangle, Pulse, Organ}

func (t Timbre) Valid() bool {
	for _, v := range timbres {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTimbre resolves a timbre name.
func ParseTimbre(name string) (Timbre, error) {
	t := Timbre(name)
	if !t.Valid() {
		return "", fmt.Errorf("unknown timbre %q", name)
	}
	return t, nil
}

// DrumKind selects a percussion voice.
type DrumKind string

const (
	Kick  DrumKind = "kick"
	Snare DrumKind = "snare"
	Hat   DrumKind = "hat"
)

func (k DrumKind) Valid() bool {
	return k == Kick || k == Snare || k == Hat
}

// ParseDrumKind resolves a percussion voice name.
func ParseDrumKind(name string) (DrumKind, error) {
	k := DrumKind(name)
	if !k.Valid() {
		return "", fmt.Errorf("unknown drum sample %q", name)
	}
	return k, nil
}

// Note is one tonal event.
type Note struct {
	ID       string  `json:"id"`
	Time     float64 `json:"time"`
	Pitch    float64 `json:"pitch"`
	Duration float64 `json:"duration"`
	Timbre   Timbre  `json:"waveform"`
}

// End returns the time at which the note stops sounding.
func (n Note) End() float64 { return n.Time + n.Duration }

func (n Note) validate() error {
	switch {
	case n.Time < 0 || math.IsNaN(n.Time) || math.IsInf(n.Time, 0):
		return fmt.Errorf("%w: time %v", ErrInvalidNote, n.Time)
	case !(n.Pitch > 0) || math.IsInf(n.Pitch, 0):
		return fmt.Errorf("%w: pitch %v", ErrInvalidNote, n.Pitch)
	case !(n.Duration > 0):
		return fmt.Errorf("%w: duration %v", ErrInvalidNote, n.Duration)
	case !n.Timbre.Valid():
		return fmt.Errorf("%w: timbre %q", ErrInvalidNote, n.Timbre)
	}
	return nil
}

// Hit is one percussion event.
type Hit struct {
	ID       string   `json:"id"`
	Time     float64  `json:"time"`
	Kind     DrumKind `json:"sample"`
	Duration float64  `json:"duration"`
}

func (h Hit) validate() error {
	switch {
	case h.Time < 0 || math.IsNaN(h.Time) || math.IsInf(h.Time, 0):
		return fmt.Errorf("%w: time %v", ErrInvalidNote, h.Time)
	case !(h.Duration > 0):
		return fmt.Errorf("%w: duration %v", ErrInvalidNote, h.Duration)
	case !h.Kind.Valid():
		return fmt.Errorf("%w: sample %q", ErrInvalidNote, h.Kind)
	}
	return nil
}

// Composition holds the three tracks, each sorted by time.
type Composition struct {
	Melody []Note `json:"melody"`
	Bass   []Note `json:"bass"`
	Drums  []Hit  `json:"drums"`
}

// AddMelody inserts n into the melody track. It reports false without error
// when a note with the same pitch already occupies the slot.
func (c *Composition) AddMelody(n Note) (bool, error) {
	return addNote(&c.Melody, n)
}

// AddBass inserts n into the bass track. An empty timbre defaults to sawtooth.
func (c *Composition) AddBass(n Note) (bool, error) {
	if n.Timbre == "" {
		n.Timbre = Sawtooth
	}
	return addNote(&c.Bass, n)
}

// AddDrum inserts h into the drum track, rejecting duplicates of the same kind.
func (c *Composition) AddDrum(h Hit) (bool, error) {
	if err := h.validate(); err != nil {
		return false, err
	}
	for _, other := range c.Drums {
		if other.Kind == h.Kind && sameSlot(other.Time, h.Time) {
			return false, nil
		}
	}
	i := sort.Search(len(c.Drums), func(i int) bool { return c.Drums[i].Time > h.Time })
	c.Drums = append(c.Drums, Hit{})
	copy(c.Drums[i+1:], c.Drums[i:])
	c.Drums[i] = h
	return true, nil
}

func addNote(track *[]Note, n Note) (bool, error) {
	if err := n.validate(); err != nil {
		return false, err
	}
	for _, other := range *track {
		if other.Pitch == n.Pitch && sameSlot(other.Time, n.Time) {
			return false, nil
		}
	}
	notes := *track
	i := sort.Search(len(notes), func(i int) bool { return notes[i].Time > n.Time })
	notes = append(notes, Note{})
	copy(notes[i+1:], notes[i:])
	notes[i] = n
	*track = notes
	return true, nil
}

func sameSlot(a, b float64) bool {
	return math.Abs(a-b) < SlotEpsilon
}

// Remove deletes the entry with the given id from whichever track holds it.
func (c *Composition) Remove(id string) bool {
	for i, n := range c.Melody {
		if n.ID == id {
			c.Melody = append(c.Melody[:i], c.Melody[i+1:]...)
			return true
		}
	}
	for i, n := range c.Bass {
		if n.ID == id {
			c.Bass = append(c.Bass[:i], c.Bass[i+1:]...)
			return true
		}
	}
	for i, h := range c.Drums {
		if h.ID == id {
			c.Drums = append(c.Drums[:i], c.Drums[i+1:]...)
			return true
		}
	}
	return false
}

// Truncate drops every entry that starts at or after duration.
func (c *Composition) Truncate(duration float64) {
	c.Melody = keepNotes(c.Melody, duration)
	c.Bass = keepNotes(c.Bass, duration)
	kept := c.Drums[:0]
	for _, h := range c.Drums {
		if h.Time < duration {
			kept = append(kept, h)
		}
	}
	c.Drums = kept
}

func keepNotes(notes []Note, duration float64) []Note {
	kept := notes[:0]
	for _, n := range notes {
		if n.Time < duration {
			kept = append(kept, n)
		}
	}
	return kept
}

func (c *Composition) Clear() {
	c.Melody, c.Bass, c.Drums = nil, nil, nil
}

func (c *Composition) IsEmpty() bool {
	return len(c.Melody) == 0 && len(c.Bass) == 0 && len(c.Drums) == 0
}

// Clone returns a deep copy, suitable as a playback snapshot.
func (c *Composition) Clone() *Composition {
	return &Composition{
		Melody: append([]Note(nil), c.Melody...),
		Bass:   append([]Note(nil), c.Bass...),
		Drums:  append([]Hit(nil), c.Drums...),
	}
}

// Normalize sorts every track by time and validates each entry. It is used
// for compositions decoded from external sources.
func (c *Composition) Normalize() error {
	for _, n := range c.Melody {
		if err := n.validate(); err != nil {
			return err
		}
	}
	for i := range c.Bass {
		if c.Bass[i].Timbre == "" {
			c.Bass[i].Timbre = Sawtooth
		}
		if err := c.Bass[i].validate(); err != nil {
			return err
		}
	}
	for _, h := range c.Drums {
		if err := h.validate(); err != nil {
			return err
		}
	}
	sort.SliceStable(c.Melody, func(i, j int) bool { return c.Melody[i].Time < c.Melody[j].Time })
	sort.SliceStable(c.Bass, func(i, j int) bool { return c.Bass[i].Time < c.Bass[j].Time })
	sort.SliceStable(c.Drums, func(i, j int) bool { return c.Drums[i].Time < c.Drums[j].Time })
	return nil
}
