package oscillator

import (
	"math"
	"testing"

	"github.com/cbegin/saugo/internal/wavetables"
)

func TestStepMatchesFrequency(t *testing.T) {
	sr := 48000.0
	step := Step(sr/2, sr) // Nyquist should be half the full 2^32 wrap
	want := uint32(1) << 31
	if step != want {
		t.Fatalf("step(sr/2) = %d, want %d", step, want)
	}
}

func TestPhaseWrapsModulo2to32(t *testing.T) {
	o := &Oscillator{Phase: math.MaxUint32 - 10}
	o.Phase += 20
	if o.Phase != 9 {
		t.Fatalf("phase did not wrap correctly: got %d", o.Phase)
	}
}

func TestRunS16PeakWithinAmplitude(t *testing.T) {
	wavetables.Init()
	lut := wavetables.Lut(wavetables.Sin)
	o := &Oscillator{}
	n := 4800
	freq := make([]float64, n)
	amp := make([]float64, n)
	for i := range freq {
		freq[i] = 440
		amp[i] = 0.5
	}
	out := make([]float64, n)
	o.RunS16(out, lut, freq, nil, amp, 48000, false)
	for _, v := range out {
		if v > 0.5001 || v < -0.5001 {
			t.Fatalf("sample %f exceeds amplitude bound 0.5", v)
		}
	}
}

func TestRunSFNoAmplitudeApplied(t *testing.T) {
	wavetables.Init()
	lut := wavetables.Lut(wavetables.Sin)
	o := &Oscillator{}
	n := 100
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 100
	}
	out := make([]float64, n)
	o.RunSF(out, lut, freq, nil, 48000, false)
	var sawPeak bool
	for _, v := range out {
		if math.Abs(v) > 0.9 {
			sawPeak = true
		}
	}
	if !sawPeak {
		t.Fatalf("expected full-range excursion without amplitude scaling")
	}
}

func TestRoundToInt16Clamps(t *testing.T) {
	if RoundToInt16(40000) != 32767 {
		t.Fatalf("expected clamp to max int16")
	}
	if RoundToInt16(-40000) != -32768 {
		t.Fatalf("expected clamp to min int16")
	}
	if RoundToInt16(1.4) != 1 {
		t.Fatalf("expected round-half-away-from-zero: 1.4 -> 1")
	}
	if RoundToInt16(1.5) != 2 {
		t.Fatalf("expected round-half-away-from-zero: 1.5 -> 2")
	}
	if RoundToInt16(-1.5) != -2 {
		t.Fatalf("expected round-half-away-from-zero: -1.5 -> -2")
	}
}
