package effectschain

import "math"

// Chorus runs a sine-modulated fractional delay over the bus, useful for
// widening a single-operator tone that would otherwise sound thin in mono.
type Chorus struct {
	bufL, bufR []float32
	pos        int
	size       int
	depth      float32 // modulation depth in samples
	rate       float64 // modulation rate in radians per sample
	phase      float64
	feedback   float32
	wet        float32
}

// NewChorus builds a Chorus (or flanger, at short delayMs) stage.
//
//	delayMs  with depthMs, sizes the delay line (delayMs+depthMs plus two
//	         samples); the tap sweeps around the middle of that line, not
//	         around delayMs itself
//	feedback feedback amount, 0..1
//	depthMs  modulation sweep depth in ms
//	rateHz   modulation rate, typically 0.1-5Hz
//	wet      wet/dry mix, 0..1
func NewChorus(sampleRate int, delayMs, feedback, depthMs, rateHz, wet float32) *Chorus {
	baseSamples := int(float64(delayMs) * float64(sampleRate) / 1000.0)
	depthSamples := float64(depthMs) * float64(sampleRate) / 1000.0
	size := baseSamples + int(depthSamples) + 2
	if size < 4 {
		size = 4
	}
	return &Chorus{
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		size:     size,
		depth:    float32(depthSamples),
		rate:     2.0 * math.Pi * float64(rateHz) / float64(sampleRate),
		feedback: clampUnit(feedback, 0, 0.9),
		wet:      clampUnit(wet, 0, 1),
	}
}

func (c *Chorus) Process(l, r float32) (float32, float32) {
	sweep := float32(math.Sin(c.phase)) * c.depth
	c.phase += c.rate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.bufL[c.pos] = l
	c.bufR[c.pos] = r

	readPos := float32(c.size/2) + sweep
	readPos = float32(c.pos) - readPos
	for readPos < 0 {
		readPos += float32(c.size)
	}
	idx := int(readPos)
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	tapL := c.bufL[idx]*(1-frac) + c.bufL[idx2]*frac
	tapR := c.bufR[idx]*(1-frac) + c.bufR[idx2]*frac

	c.bufL[c.pos] += tapL * c.feedback
	c.bufR[c.pos] += tapR * c.feedback

	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return l*(1-c.wet) + tapL*c.wet, r*(1-c.wet) + tapR*c.wet
}

func (c *Chorus) Reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.pos = 0
	c.phase = 0
}

func (c *Chorus) Name() string { return "chorus" }
