// Package oscillator implements the 32-bit phase-accumulator oscillator
// core (spec §4.3): a per-sample step advances phase, lookup reads the
// wave table at phase (+ an optional phase-modulation offset), and the
// result is optionally scaled by amplitude.
package oscillator

import (
	"math"

	"github.com/cbegin/saugo/internal/wavetables"
)

// Oscillator holds the 32-bit phase accumulator state for one operator.
type Oscillator struct {
	Phase uint32
}

// Step converts a frequency in Hz to the per-sample phase increment for
// sampleRate, rounding to the nearest 32-bit unsigned step.
func Step(freq float64, sampleRate float64) uint32 {
	if freq < 0 {
		freq = 0
	}
	f := freq * 4294967296.0 / sampleRate // 2^32 / srate, double precision
	return uint32(math.Round(f))
}

// PhaseFromFraction maps a fractional phase in [0,1) from script-authored
// phase values to the 32-bit domain.
func PhaseFromFraction(frac float64) uint32 {
	return uint32(math.Round(frac * 4294967296.0))
}

// RunS16 evaluates len(out) samples for voice/PM-source use: each sample is
// the interpolated lookup at phase+pm[i] (pm defaults to 0 when nil),
// multiplied by amp[i], with phase advanced by step(freq[i]) afterward.
// herp selects 4-point Hermite interpolation over linear.
func (o *Oscillator) RunS16(out []float64, lut *[wavetables.TableLen]float32, freq []float64, pm []int32, amp []float64, sampleRate float64, herp bool) {
	for i := range out {
		var pmOff int32
		if pm != nil {
			pmOff = pm[i]
		}
		phase := o.Phase + uint32(pmOff)
		var s float32
		if herp {
			s = wavetables.GetHerp(lut, phase)
		} else {
			s = wavetables.GetLerp(lut, phase)
		}
		out[i] = float64(s) * amp[i]
		o.Phase += Step(freq[i], sampleRate)
	}
}

// RunSF is the envelope/modulator variant: the lookup is not multiplied by
// any amplitude; the caller scales the produced buffer in a later step.
func (o *Oscillator) RunSF(out []float64, lut *[wavetables.TableLen]float32, freq []float64, pm []int32, sampleRate float64, herp bool) {
	for i := range out {
		var pmOff int32
		if pm != nil {
			pmOff = pm[i]
		}
		phase := o.Phase + uint32(pmOff)
		var s float32
		if herp {
			s = wavetables.GetHerp(lut, phase)
		} else {
			s = wavetables.GetLerp(lut, phase)
		}
		out[i] = float64(s)
		o.Phase += Step(freq[i], sampleRate)
	}
}

// RoundToInt16 converts a float sample to a clamped 16-bit signed integer,
// rounding half-away-from-zero (spec §4.5.5, Open Question resolved in
// SPEC_FULL.md).
func RoundToInt16(v float64) int16 {
	r := math.Round(v)
	if r > 32767 {
		r = 32767
	}
	if r < -32768 {
		r = -32768
	}
	return int16(r)
}
