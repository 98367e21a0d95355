package effects

import "github.com/cbegin/sonify-go/internal/lfo"

const (
	phaserStages = 4
	// phaserBlock is the number of samples between all-pass coefficient
	// updates.
	phaserBlock = 16
)

// Phaser sweeps four cascaded all-pass stages with one sine LFO. The last
// stage's output is fed back into the first.
type Phaser struct {
	sampleRate float64
	base       float64 // Hz
	feedback   float64
	lfo        *lfo.LFO // depth in Hz
	stagesL    [phaserStages]Biquad
	stagesR    [phaserStages]Biquad
	fbL, fbR   float64
	counter    int
}

func NewPhaser(sampleRate int) *Phaser {
	p := &Phaser{sampleRate: float64(sampleRate), lfo: lfo.New(0, 0)}
	for i := range p.stagesL {
		p.stagesL[i].identity()
		p.stagesR[i].identity()
	}
	return p
}

func (p *Phaser) SetRate(hz float64) { p.lfo.SetRate(hz) }

// SetDepth sets the sweep amplitude in Hz. The centre frequency follows at
// 1.5 times the depth.
func (p *Phaser) SetDepth(hz float64) {
	p.lfo.SetDepth(hz)
	p.base = hz * 1.5
}

func (p *Phaser) SetFeedback(feedback float64) {
	p.feedback = clamp64(feedback, 0, 0.95)
}

func (p *Phaser) Process(l, r float32) (float32, float32) {
	mod := p.lfo.Sample(p.sampleRate)
	if p.counter == 0 {
		freq := p.base + mod
		for i := range p.stagesL {
			p.stagesL[i].Allpass(p.sampleRate, freq, 1)
			p.stagesR[i].Allpass(p.sampleRate, freq, 1)
		}
	}
	p.counter++
	if p.counter >= phaserBlock {
		p.counter = 0
	}
	yl := float64(l) + p.fbL*p.feedback
	yr := float64(r) + p.fbR*p.feedback
	for i := range p.stagesL {
		yl = p.stagesL[i].Process(yl)
		yr = p.stagesR[i].Process(yr)
	}
	p.fbL, p.fbR = yl, yr
	return float32(yl), float32(yr)
}

func (p *Phaser) Reset() {
	for i := range p.stagesL {
		p.stagesL[i].Reset()
		p.stagesR[i].Reset()
	}
	p.fbL, p.fbR = 0, 0
}
