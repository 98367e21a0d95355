package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cbegin/sonify-go/internal/composition"
)

func TestParamLinearRamp(t *testing.T) {
	p := NewParam(5)
	p.SetValueAtTime(0, 1)
	p.LinearRampToValueAtTime(1, 2)
	cases := []struct{ t, want float64 }{
		{0.5, 5}, {1, 0}, {1.25, 0.25}, {1.5, 0.5}, {2, 1}, {3, 1},
	}
	for _, tc := range cases {
		if got := p.ValueAt(tc.t); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("ValueAt(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestParamExponentialRamp(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(100, 0)
	p.ExponentialRampToValueAtTime(1, 2)
	if got := p.ValueAt(1); math.Abs(got-10) > 1e-9 {
		t.Fatalf("midpoint = %v, want 10", got)
	}
	z := NewParam(0)
	z.ExponentialRampToValueAtTime(1, 1)
	if got := z.ValueAt(0.5); got != 0 {
		t.Fatalf("ramp from zero = %v, want 0", got)
	}
}

func TestParamRewindsForEarlierReads(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 2)
	p.ValueAt(3)
	if got := p.ValueAt(1.5); got != 1 {
		t.Fatalf("ValueAt(1.5) after later read = %v, want 1", got)
	}
}

func TestOscEnvelope(t *testing.T) {
	const sr = 44100
	o := NewOsc(sr, composition.Square, 440, 1, 1.25)
	o.Envelope(0.25, 0.005, 0.01)
	if got := o.Gain.ValueAt(1); got != 0 {
		t.Errorf("gain at start = %v, want 0", got)
	}
	if got := o.Gain.ValueAt(1.0025); math.Abs(got-0.125) > 1e-9 {
		t.Errorf("gain mid-attack = %v, want 0.125", got)
	}
	if got := o.Gain.ValueAt(1.2); got != 0.25 {
		t.Errorf("gain while held = %v, want 0.25", got)
	}
	if got := o.Gain.ValueAt(1.245); math.Abs(got-0.125) > 1e-9 {
		t.Errorf("gain mid-release = %v, want 0.125", got)
	}
	var peak float32
	for i := 0; i < int(0.25*sr); i++ {
		v := o.Sample(1 + float64(i)/sr)
		peak = max(peak, float32(math.Abs(float64(v))))
	}
	if peak < 0.2 || peak > 0.26 {
		t.Errorf("rendered peak = %v, want about 0.25", peak)
	}
}

func TestDrumDurations(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	cases := []struct {
		kind composition.DrumKind
		want float64
	}{
		{composition.Kick, 0.26},
		{composition.Snare, 0.08},
		{composition.Hat, 0.03},
	}
	for _, tc := range cases {
		v := Drum(44100, rnd, tc.kind, 0.5, 2)
		if v.Start() != 2 || math.Abs(v.End()-2-tc.want) > 1e-9 {
			t.Errorf("%s spans [%v, %v), want [2, %v)", tc.kind, v.Start(), v.End(), 2+tc.want)
		}
	}
}

func TestKickSweepsDown(t *testing.T) {
	k := Drum(44100, nil, composition.Kick, 0.5, 0).(*Osc)
	if got := k.Freq.ValueAt(0); got != 105 {
		t.Fatalf("kick start frequency = %v, want 105", got)
	}
	if got := k.Freq.ValueAt(0.2); got >= 1 {
		t.Fatalf("kick frequency at 200ms = %v, want < 1", got)
	}
	if got := k.Gain.ValueAt(k.End()); got != 0 {
		t.Fatalf("kick gain at end = %v, want 0", got)
	}
}

func TestNoiseHitsDiffer(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	a := Drum(44100, rnd, composition.Hat, 0.5, 0)
	b := Drum(44100, rnd, composition.Hat, 0.5, 0)
	same := true
	for i := 0; i < 100; i++ {
		tm := float64(i) / 44100
		if a.Sample(tm) != b.Sample(tm) {
			same = false
		}
	}
	if same {
		t.Fatal("each hit should draw a fresh noise buffer")
	}
}
