package effectschain

import "math"

// Compressor tames the bus's dynamic range with an envelope-follower gain
// reducer, the stage most useful after a reverb tail or a stack of several
// loud voices, where the mixdown's peaks would otherwise clip on write.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // envelope coefficient
	release   float32 // envelope coefficient
	makeup    float32
	envL      float32
	envR      float32
}

// NewCompressor builds a Compressor stage.
//
//	thresholdDB level above which gain reduction engages, in dB (e.g. -20)
//	ratio       compression ratio, e.g. 4 for 4:1
//	attackMs    envelope attack time in ms
//	releaseMs   envelope release time in ms
//	makeupDB    output makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	absL := float32(math.Abs(float64(l)))
	absR := float32(math.Abs(float64(r)))
	if absL > c.envL {
		c.envL += c.attack * (absL - c.envL)
	} else {
		c.envL += c.release * (absL - c.envL)
	}
	if absR > c.envR {
		c.envR += c.attack * (absR - c.envR)
	} else {
		c.envR += c.release * (absR - c.envR)
	}
	return l * c.gainFor(c.envL) * c.makeup, r * c.gainFor(c.envR) * c.makeup
}

// gainFor derives the linear gain reduction for an envelope level already
// above threshold; at or below threshold the bus passes through untouched.
func (c *Compressor) gainFor(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.envL = 0
	c.envR = 0
}

func (c *Compressor) Name() string { return "compressor" }
