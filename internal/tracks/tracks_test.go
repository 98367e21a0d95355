package tracks

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/cbegin/sonify-go/internal/audio"
	"github.com/cbegin/sonify-go/internal/effects"
)

func buildDefault(t *testing.T, fx Effects) (*audio.Context, *Set) {
	t.Helper()
	ctx := audio.NewOffline(44100, 44100)
	return ctx, Build(ctx, rand.New(rand.NewSource(1)), fx, DefaultControls())
}

func TestChainOrder(t *testing.T) {
	_, s := buildDefault(t, DefaultEffects())
	cases := []struct {
		id   ID
		want []effects.Kind
	}{
		{Melody, []effects.Kind{effects.KindDistortion, effects.KindPanner, effects.KindPhaser, effects.KindFlanger,
			effects.KindChorus, effects.KindTremolo, effects.KindDelay, effects.KindReverb}},
		{Bass, []effects.Kind{effects.KindDistortion, effects.KindChorus, effects.KindCompressor, effects.KindReverb}},
		{Drums, []effects.Kind{effects.KindFilter, effects.KindCompressor, effects.KindDelay, effects.KindReverb}},
	}
	for _, tc := range cases {
		if got := s.Track(tc.id).Chain.Kinds(); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s kinds = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestBuildAttachesInOrder(t *testing.T) {
	_, s := buildDefault(t, DefaultEffects())
	for i, id := range []ID{Melody, Bass, Drums} {
		if got := s.Bus(id); got != audio.BusID(i) {
			t.Errorf("%s bus = %d, want %d", id, got, i)
		}
	}
}

func TestDefaultsAreBypassed(t *testing.T) {
	_, s := buildDefault(t, DefaultEffects())
	for _, id := range []ID{Melody, Bass, Drums} {
		for _, kind := range s.Track(id).Chain.Kinds() {
			if kind == effects.KindCompressor || kind == effects.KindFilter {
				continue
			}
			wet, dry := s.Track(id).Unit(kind).Mix()
			if wet != 0 || dry != 1 {
				t.Errorf("%s %s mix = (%v, %v), want (0, 1)", id, kind, wet, dry)
			}
		}
	}
	f := s.Track(Drums).Unit(effects.KindFilter).Effector().(*effects.ResonantFilter)
	if got := f.Cutoff(); got != 22050 {
		t.Errorf("disabled drum filter cutoff = %v, want 22050", got)
	}
}

func TestReverbMixFollowsWet(t *testing.T) {
	fx := DefaultEffects()
	fx.Melody.Reverb.Active = true
	fx.Melody.Reverb.Wet = 0.25
	_, s := buildDefault(t, fx)
	u := s.Track(Melody).Unit(effects.KindReverb)
	wet, dry := u.Mix()
	if wet != 0.25 || dry != 0.75 {
		t.Fatalf("reverb mix = (%v, %v), want (0.25, 0.75)", wet, dry)
	}
	if got := u.Effector().(*effects.Reverb).Decay(); got != 1.5 {
		t.Fatalf("reverb decay = %v, want 1.5", got)
	}
}

func TestBassChorusHonoursMix(t *testing.T) {
	fx := DefaultEffects()
	fx.Bass.Chorus.Active = true
	_, s := buildDefault(t, fx)
	wet, dry := s.Track(Bass).Unit(effects.KindChorus).Mix()
	if wet != 0.5 || dry != 0.5 {
		t.Fatalf("default bass chorus mix = (%v, %v), want (0.5, 0.5)", wet, dry)
	}
	fx.Bass.Chorus.Mix = 0.2
	s.ApplyBass(fx.Bass)
	wet, dry = s.Track(Bass).Unit(effects.KindChorus).Mix()
	if math.Abs(float64(wet)-0.2) > 1e-6 || math.Abs(float64(dry)-0.8) > 1e-6 {
		t.Fatalf("bass chorus mix = (%v, %v), want (0.2, 0.8)", wet, dry)
	}
}

func TestWeightCutoff(t *testing.T) {
	cases := []struct {
		weight, want float64
	}{
		{0, 1500},
		{1, 80},
		{0.5, math.Sqrt(1500 * 80)},
		{-1, 1500},
		{2, 80},
	}
	for _, tc := range cases {
		if got := WeightCutoff(tc.weight); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("WeightCutoff(%v) = %v, want %v", tc.weight, got, tc.want)
		}
	}
}

func TestControls(t *testing.T) {
	_, s := buildDefault(t, DefaultEffects())
	s.ApplyControls(Controls{MelodyVolume: 0.5, BassVolume: 0.25, DrumVolume: -1, BassWeight: 1, DrumTone: 3})
	if got := s.Track(Melody).Volume(); got != 0.5 {
		t.Errorf("melody volume = %v, want 0.5", got)
	}
	if got := s.Track(Bass).Volume(); got != 0.25 {
		t.Errorf("bass volume = %v, want 0.25", got)
	}
	if got := s.Track(Drums).Volume(); got != 0 {
		t.Errorf("drum volume = %v, want 0", got)
	}
	if got := s.DrumTone(); got != 1 {
		t.Errorf("drum tone = %v, want 1", got)
	}
	if got := s.Track(Bass).weight.Cutoff(); math.Abs(got-80) > 1e-9 {
		t.Errorf("bass weight cutoff = %v, want 80", got)
	}
	s.SetBassWeight(0.5)
	if got := s.Track(Bass).weight.Cutoff(); got <= 80 || got >= 1500 {
		t.Errorf("bass weight 0.5 cutoff = %v, want between 80 and 1500", got)
	}
}

func TestDrumToneConcurrentAccess(t *testing.T) {
	_, s := buildDefault(t, DefaultEffects())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.SetDrumTone(float64(i%10) / 10)
		}
	}()
	for i := 0; i < 1000; i++ {
		if v := s.DrumTone(); v < 0 || v > 1 {
			t.Fatalf("drum tone = %v, want within [0, 1]", v)
		}
	}
	<-done
}

func TestEffectsJSONNames(t *testing.T) {
	raw := `{"bass":{"chorus":{"active":true,"rate":2,"depth":1,"delay":5,"mix":0.3}},
		"drums":{"filter":{"active":true,"frequency":900,"q":4}}}`
	var fx Effects
	if err := json.Unmarshal([]byte(raw), &fx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !fx.Bass.Chorus.Active || fx.Bass.Chorus.Rate != 2 || fx.Bass.Chorus.Mix != 0.3 {
		t.Fatalf("bass chorus = %+v", fx.Bass.Chorus)
	}
	if fx.Drums.Filter.Frequency != 900 || fx.Drums.Filter.Q != 4 {
		t.Fatalf("drum filter = %+v", fx.Drums.Filter)
	}
}

func TestParseID(t *testing.T) {
	for _, id := range []ID{Melody, Bass, Drums} {
		got, err := ParseID(id.String())
		if err != nil || got != id {
			t.Errorf("ParseID(%q) = %v, %v", id.String(), got, err)
		}
	}
	if _, err := ParseID("lead"); err == nil {
		t.Errorf("expected error for unknown track")
	}
}

func BenchmarkMelodyChainAllActive(b *testing.B) {
	fx := DefaultEffects()
	m := &fx.Melody
	m.Distortion.Active, m.Panner.Active, m.Phaser.Active, m.Flanger.Active = true, true, true, true
	m.Chorus.Active, m.Tremolo.Active, m.Delay.Active, m.Reverb.Active = true, true, true, true
	ctx := audio.NewOffline(44100, 0)
	s := Build(ctx, rand.New(rand.NewSource(1)), fx, DefaultControls())
	chain := s.Track(Melody).Chain
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chain.Process(0.1, 0.1)
	}
}
