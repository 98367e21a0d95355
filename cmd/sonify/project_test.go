package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/cbegin/sonify-go"
)

func TestDecodeProjectKeepsDefaults(t *testing.T) {
	src := `{
		"duration": 2,
		"composition": {
			"melody": [{"id": "m2", "time": 0.5, "pitch": 660, "duration": 0.125, "waveform": "square"},
			           {"id": "m1", "time": 0, "pitch": 440, "duration": 0.125, "waveform": "sine"}],
			"bass": [{"id": "b1", "time": 0, "pitch": 55, "duration": 0.25}],
			"drums": [{"id": "d1", "time": 0, "sample": "kick", "duration": 0.125}]
		},
		"effects": {"melody": {"reverb": {"active": true, "decay": 2, "wet": 0.4}}},
		"controls": {"drumTone": 0.25}
	}`
	proj, err := decodeProject(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decodeProject: %v", err)
	}
	if proj.Duration != 2 {
		t.Fatalf("duration got %v want 2", proj.Duration)
	}
	if got := proj.Composition.Melody[0].ID; got != "m1" {
		t.Fatalf("melody not sorted: first id %q", got)
	}
	if got := proj.Composition.Bass[0].Timbre; got != sonify.Sawtooth {
		t.Fatalf("bass timbre got %q want %q", got, sonify.Sawtooth)
	}
	if !proj.Effects.Melody.Reverb.Active || proj.Effects.Melody.Reverb.Wet != 0.4 {
		t.Fatalf("melody reverb not decoded: %+v", proj.Effects.Melody.Reverb)
	}
	def := sonify.DefaultEffects()
	if proj.Effects.Melody.Delay != def.Melody.Delay {
		t.Fatalf("melody delay lost default: %+v", proj.Effects.Melody.Delay)
	}
	if proj.Effects.Bass != def.Bass {
		t.Fatalf("bass effects lost defaults: %+v", proj.Effects.Bass)
	}
	ctl := sonify.DefaultControls()
	if proj.Controls.DrumTone != 0.25 || proj.Controls.MelodyVolume != ctl.MelodyVolume {
		t.Fatalf("controls got %+v", proj.Controls)
	}
}

func TestDecodeProjectRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"zero duration", `{"duration": 0}`, sonify.ErrInvalidDuration},
		{"bad note", `{"composition": {"melody": [{"id": "x", "time": 0, "pitch": -1, "duration": 0.125, "waveform": "sine"}]}}`, sonify.ErrInvalidNote},
	}
	for _, tc := range tests {
		_, err := decodeProject(strings.NewReader(tc.src))
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
	if _, err := decodeProject(strings.NewReader(`{"tempo": 120}`)); err == nil {
		t.Errorf("unknown field accepted")
	}
}
