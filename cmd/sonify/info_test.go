package main

import (
	"math"
	"testing"
)

func TestPeaks(t *testing.T) {
	got := peaks([][]float32{{0.1, -0.5, 0.25}, {0, 0}})
	want := []float64{0.5, 0}
	for c := range want {
		if math.Abs(got[c]-want[c]) > 1e-7 {
			t.Errorf("peak ch%d = %v, want %v", c, got[c], want[c])
		}
	}
}

func TestDBFS(t *testing.T) {
	if got := dbfs(1); got != 0 {
		t.Errorf("dbfs(1) = %v, want 0", got)
	}
	if got := dbfs(0.5); math.Abs(got+6.0206) > 1e-3 {
		t.Errorf("dbfs(0.5) = %v, want -6.02", got)
	}
	if got := dbfs(0); !math.IsInf(got, -1) {
		t.Errorf("dbfs(0) = %v, want -Inf", got)
	}
}
