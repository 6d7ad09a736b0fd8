package effectschain

// Reverb runs a Schroeder network (four parallel comb filters into two
// series allpass filters) over the bus — the stage that gives a single
// sustained carrier the sense of decaying into a room rather than stopping
// dead at its operator's Time budget.
type Reverb struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
	wet     float32
}

type combFilter struct {
	buf []float32
	pos int
	fb  float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb builds a Reverb stage.
//
//	roomSize 0..1, scales the comb/allpass delay lengths
//	feedback 0..1, scales the decay time
//	wet      wet/dry mix, 0..1
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clampUnit(feedback, 0, 0.95)
	rv := &Reverb{wet: clampUnit(wet, 0, 1)}
	// Delay lengths at non-integer ratios of each other so the comb
	// resonances don't line up into an audible ring.
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range rv.combs {
		rv.combs[i] = combFilter{buf: make([]float32, combLens[i]), fb: fb}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range rv.allpass {
		rv.allpass[i] = allpassFilter{buf: make([]float32, maxSamples(apLens[i], 1)), fb: 0.5}
	}
	return rv
}

func (rv *Reverb) Process(l, r float32) (float32, float32) {
	mono := (l + r) * 0.5
	var out float32
	for i := range rv.combs {
		out += rv.combs[i].process(mono)
	}
	out *= 0.25
	for i := range rv.allpass {
		out = rv.allpass[i].process(out)
	}
	return l*(1-rv.wet) + out*rv.wet, r*(1-rv.wet) + out*rv.wet
}

func (rv *Reverb) Reset() {
	for i := range rv.combs {
		for j := range rv.combs[i].buf {
			rv.combs[i].buf[j] = 0
		}
		rv.combs[i].pos = 0
	}
	for i := range rv.allpass {
		for j := range rv.allpass[i].buf {
			rv.allpass[i].buf[j] = 0
		}
		rv.allpass[i].pos = 0
	}
}

func (rv *Reverb) Name() string { return "reverb" }

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
