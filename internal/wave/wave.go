// Package wave builds band-limited single-cycle oscillator tables from
// harmonic spectra. Every timbre, including the built-in shapes, is
// synthesized the same way so that interactive and offline rendering read
// identical tables.
package wave

import (
	"math"
	"math/bits"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/cbegin/sonify-go/internal/composition"
)

// TableSize is the number of samples in one cycle of every mip level.
const TableSize = 2048

const maxHarmonic = TableSize/2 - 1

// Spectrum describes a periodic wave by harmonic number. Index 0 is the DC
// term and is ignored. Real holds cosine amplitudes, Imag sine amplitudes.
type Spectrum struct {
	Real []float64
	Imag []float64
}

func (s Spectrum) harmonics() int {
	n := len(s.Real)
	if len(s.Imag) > n {
		n = len(s.Imag)
	}
	if n-1 > maxHarmonic {
		return maxHarmonic
	}
	return n - 1
}

func (s Spectrum) coeff(n int) (float64, float64) {
	var a, b float64
	if n < len(s.Real) {
		a = s.Real[n]
	}
	if n < len(s.Imag) {
		b = s.Imag[n]
	}
	return a, b
}

// Table is a set of mip levels of one waveform, each level holding fewer
// harmonics than the last so that high pitches do not alias.
type Table struct {
	levels [][]float64
	limits []int
}

// NewTable synthesizes a table from s. Levels are normalized together so
// that the richest level peaks at 1.
func NewTable(s Spectrum) *Table {
	top := s.harmonics()
	t := &Table{}
	for limit := 1; ; limit *= 2 {
		if limit > top {
			limit = top
		}
		t.levels = append(t.levels, synthesize(s, limit))
		t.limits = append(t.limits, limit)
		if limit >= top {
			break
		}
	}
	peak := 1e-9
	for _, v := range t.levels[len(t.levels)-1] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	for _, lvl := range t.levels {
		for i := range lvl {
			lvl[i] /= peak
		}
	}
	return t
}

// synthesize renders harmonics 1..limit of s into one cycle via inverse FFT.
func synthesize(s Spectrum, limit int) []float64 {
	x := make([]complex128, TableSize)
	half := float64(TableSize) / 2
	for n := 1; n <= limit; n++ {
		a, b := s.coeff(n)
		x[n] = complex(a*half, -b*half)
		x[TableSize-n] = complex(a*half, b*half)
	}
	y := fft.IFFT(x)
	out := make([]float64, TableSize)
	for i := range out {
		out[i] = real(y[i])
	}
	return out
}

// Level returns the richest level whose harmonics stay below the Nyquist
// frequency for a fundamental of freq Hz.
func (t *Table) Level(freq, sampleRate float64) []float64 {
	if freq <= 0 {
		return t.levels[len(t.levels)-1]
	}
	limit := int(sampleRate / 2 / freq)
	if limit < 1 {
		return t.levels[0]
	}
	i := bits.Len(uint(limit)) - 1
	if i >= len(t.levels) {
		i = len(t.levels) - 1
	}
	return t.levels[i]
}

// At reads lvl at phase in [0, 1) with linear interpolation.
func At(lvl []float64, phase float64) float64 {
	pos := phase * TableSize
	i := int(pos)
	frac := pos - float64(i)
	i &= TableSize - 1
	j := (i + 1) & (TableSize - 1)
	return lvl[i]*(1-frac) + lvl[j]*frac
}

// PulseSpectrum converts a 256-sample, 25% duty bipolar cycle into its
// harmonic spectrum. The DC term is dropped.
func PulseSpectrum() Spectrum {
	const n = 256
	cycle := make([]float64, n)
	for i := range cycle {
		if i < n/4 {
			cycle[i] = 1
		} else {
			cycle[i] = -1
		}
	}
	X := fft.FFTReal(cycle)
	s := Spectrum{Real: make([]float64, n/2), Imag: make([]float64, n/2)}
	for k := 1; k < n/2; k++ {
		s.Real[k] = 2 * real(X[k]) / n
		s.Imag[k] = -2 * imag(X[k]) / n
	}
	return s
}

// OrganSpectrum is a drawbar-like series with a suppressed DC slot and
// descending upper partials.
func OrganSpectrum() Spectrum {
	return Spectrum{
		Real: make([]float64, 6),
		Imag: []float64{0, 0.8, 0.4, 0.2, 0.1, 0.05},
	}
}

func shapeSpectrum(timbre composition.Timbre) Spectrum {
	s := Spectrum{Imag: make([]float64, maxHarmonic+1)}
	for n := 1; n <= maxHarmonic; n++ {
		fn := float64(n)
		switch timbre {
		case composition.Sine:
			if n == 1 {
				s.Imag[n] = 1
			}
		case composition.Square:
			s.Imag[n] = 2 / (fn * math.Pi) * (1 - math.Pow(-1, fn))
		case composition.Sawtooth:
			s.Imag[n] = math.Pow(-1, fn+1) * 2 / (fn * math.Pi)
		case composition.Triangle:
			s.Imag[n] = 8 * math.Sin(fn*math.Pi/2) / (fn * fn * math.Pi * math.Pi)
		}
	}
	if timbre == composition.Sine {
		s.Imag = s.Imag[:2]
	}
	return s
}

var (
	tablesOnce sync.Once
	tables     map[composition.Timbre]*Table
)

// For returns the shared table of a timbre, building every table on first
// use. Unknown timbres fall back to sine.
func For(timbre composition.Timbre) *Table {
	tablesOnce.Do(func() {
		tables = map[composition.Timbre]*Table{
			composition.Sine:     NewTable(shapeSpectrum(composition.Sine)),
			composition.Square:   NewTable(shapeSpectrum(composition.Square)),
			composition.Sawtooth: NewTable(shapeSpectrum(composition.Sawtooth)),
			composition.Triangle: NewTable(shapeSpectrum(composition.Triangle)),
			composition.Pulse:    NewTable(PulseSpectrum()),
			composition.Organ:    NewTable(OrganSpectrum()),
		}
	})
	if t, ok := tables[timbre]; ok {
		return t
	}
	return tables[composition.Sine]
}
