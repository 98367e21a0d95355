package composition

var pentatonicBase = [5]float64{261.63, 293.66, 329.63, 392.00, 440.00}
var pentatonicNames = [5]string{"C", "D", "E", "G", "A"}

// MelodyPitches lists the melody grid rows from the highest pitch down:
// C major pentatonic over octaves 3 to 6.
var MelodyPitches, MelodyPitchNames = pentatonicRows([]float64{4, 2, 1, 0.5}, []int{6, 5, 4, 3})

// BassPitches lists the bass grid rows from the highest pitch down,
// C major pentatonic over octaves 1 and 2.
var BassPitches, BassPitchNames = pentatonicRows([]float64{0.25, 0.125}, []int{2, 1})

// DrumRows lists the drum grid rows from top to bottom.
var DrumRows = []DrumKind{Hat, Snare, Kick}

func pentatonicRows(mults []float64, octaves []int) ([]float64, []string) {
	pitches := make([]float64, 0, len(mults)*len(pentatonicBase))
	names := make([]string, 0, cap(pitches))
	for o, m := range mults {
		for i := len(pentatonicBase) - 1; i >= 0; i-- {
			pitches = append(pitches, pentatonicBase[i]*m)
			names = append(names, pentatonicNames[i]+string(rune('0'+octaves[o])))
		}
	}
	return pitches, names
}
