package tracks

// Parameter snapshots for the three track chains. Field names follow the
// JSON the editor produces.

type Distortion struct {
	Active bool    `json:"active"`
	Drive  float64 `json:"drive"`  // 0..1
	Tone   float64 `json:"tone"`   // Hz, 200..5000
	Output float64 `json:"output"` // 0..1
}

type Panner struct {
	Active bool    `json:"active"`
	Pan    float64 `json:"pan"` // -1..1
}

type Phaser struct {
	Active    bool    `json:"active"`
	Frequency float64 `json:"frequency"` // LFO rate, Hz
	Depth     float64 `json:"depth"`     // sweep, Hz
	Feedback  float64 `json:"feedback"`  // 0..0.8
}

type Flanger struct {
	Active   bool    `json:"active"`
	Delay    float64 `json:"delay"` // ms, 0..10
	Depth    float64 `json:"depth"` // ms, 0..2
	Feedback float64 `json:"feedback"`
	Rate     float64 `json:"rate"` // Hz
}

type Chorus struct {
	Active bool    `json:"active"`
	Rate   float64 `json:"rate"`  // Hz
	Depth  float64 `json:"depth"` // ms of modulation
	Delay  float64 `json:"delay"` // ms
}

type Tremolo struct {
	Active    bool    `json:"active"`
	Frequency float64 `json:"frequency"`
	Depth     float64 `json:"depth"` // 0..1
}

type Delay struct {
	Active   bool    `json:"active"`
	Time     float64 `json:"time"` // seconds
	Feedback float64 `json:"feedback"`
}

type Reverb struct {
	Active bool    `json:"active"`
	Decay  float64 `json:"decay"` // seconds, 0.1..5
	Wet    float64 `json:"wet"`   // 0..1
}

type Compressor struct {
	Active    bool    `json:"active"`
	Threshold float64 `json:"threshold"` // dB
	Ratio     float64 `json:"ratio"`
	Attack    float64 `json:"attack"`  // seconds
	Release   float64 `json:"release"` // seconds
}

type Filter struct {
	Active    bool    `json:"active"`
	Frequency float64 `json:"frequency"` // Hz
	Q         float64 `json:"q"`
}

// BassDistortion drives the curve at half the configured amount into a fixed
// tone filter.
type BassDistortion struct {
	Active bool    `json:"active"`
	Drive  float64 `json:"drive"`
}

// BassChorus blends wet and dry by Mix when active.
type BassChorus struct {
	Chorus
	Mix float64 `json:"mix"`
}

type MelodyEffects struct {
	Distortion Distortion `json:"distortion"`
	Panner     Panner     `json:"panner"`
	Phaser     Phaser     `json:"phaser"`
	Flanger    Flanger    `json:"flanger"`
	Chorus     Chorus     `json:"chorus"`
	Tremolo    Tremolo    `json:"tremolo"`
	Reverb     Reverb     `json:"reverb"`
	Delay      Delay      `json:"delay"`
}

type BassEffects struct {
	Reverb     Reverb         `json:"reverb"`
	Distortion BassDistortion `json:"distortion"`
	Compressor Compressor     `json:"compressor"`
	Chorus     BassChorus     `json:"chorus"`
}

type DrumEffects struct {
	Delay      Delay      `json:"delay"`
	Reverb     Reverb     `json:"reverb"`
	Compressor Compressor `json:"compressor"`
	Filter     Filter     `json:"filter"`
}

// Effects bundles the snapshots of all three tracks.
type Effects struct {
	Melody MelodyEffects `json:"melody"`
	Bass   BassEffects   `json:"bass"`
	Drums  DrumEffects   `json:"drums"`
}

// Controls are the per-track scalars outside the effect chains.
type Controls struct {
	MelodyVolume float64 `json:"melodyVolume"`
	BassVolume   float64 `json:"bassVolume"`
	DrumVolume   float64 `json:"drumVolume"`
	BassWeight   float64 `json:"bassWeight"` // 0..1
	DrumTone     float64 `json:"drumTone"`   // 0..1
}

func DefaultMelodyEffects() MelodyEffects {
	return MelodyEffects{
		Distortion: Distortion{Drive: 0.5, Tone: 2500, Output: 0.5},
		Phaser:     Phaser{Frequency: 1.2, Depth: 500, Feedback: 0.5},
		Flanger:    Flanger{Delay: 3, Depth: 1, Feedback: 0.5, Rate: 1.5},
		Chorus:     Chorus{Rate: 1.5, Depth: 0.5, Delay: 4},
		Tremolo:    Tremolo{Frequency: 5, Depth: 0.6},
		Reverb:     Reverb{Decay: 1.5, Wet: 0.5},
		Delay:      Delay{Time: 0.25, Feedback: 0.3},
	}
}

func defaultCompressor() Compressor {
	return Compressor{Threshold: -24, Ratio: 12, Attack: 0.003, Release: 0.25}
}

func DefaultBassEffects() BassEffects {
	return BassEffects{
		Reverb:     Reverb{Decay: 1, Wet: 0.3},
		Distortion: BassDistortion{Drive: 0.5},
		Compressor: defaultCompressor(),
		Chorus:     BassChorus{Chorus: Chorus{Rate: 1.5, Depth: 0.5, Delay: 4}, Mix: 0.5},
	}
}

func DefaultDrumEffects() DrumEffects {
	return DrumEffects{
		Delay:      Delay{Time: 0.25, Feedback: 0.3},
		Reverb:     Reverb{Decay: 1, Wet: 0.3},
		Compressor: defaultCompressor(),
		Filter:     Filter{Frequency: 1200, Q: 1},
	}
}

func DefaultEffects() Effects {
	return Effects{
		Melody: DefaultMelodyEffects(),
		Bass:   DefaultBassEffects(),
		Drums:  DefaultDrumEffects(),
	}
}

func DefaultControls() Controls {
	return Controls{MelodyVolume: 0.8, BassVolume: 0.8, DrumVolume: 0.8, BassWeight: 0.5, DrumTone: 0.5}
}
