package effectschain

import (
	"math"
	"testing"
)

func TestDelayEchoesPastInput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0, 0.5)
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected the echoed impulse to resurface, got l=%f r=%f", l, r)
	}
}

func TestReverbLeavesADecayTail(t *testing.T) {
	rv := NewReverb(44100, 0.5, 0.7, 0.5)
	rv.Process(1.0, 1.0)
	var peak float32
	for i := 0; i < 10000; i++ {
		l, _ := rv.Process(0, 0)
		if l > peak {
			peak = l
		}
	}
	if peak < 0.001 {
		t.Error("expected a nonzero reverb tail after the impulse")
	}
}

func TestDistortionStaysBounded(t *testing.T) {
	d := NewDistortion(44100, 10, 0.5, 0)
	l, r := d.Process(0.5, 0.5)
	if math.Abs(float64(l)) > 1.0 || math.Abs(float64(r)) > 1.0 {
		t.Error("tanh clipping should keep the bus within [-1,1]")
	}
	if math.Abs(float64(l)) < 0.01 {
		t.Error("expected a nonzero clipped output")
	}
}

func TestChainRunsStagesInOrder(t *testing.T) {
	c := NewChain(
		NewDistortion(44100, 2, 1, 0),
		NewDelay(44100, 10, 0, 0, 0.5),
	)
	l, r := c.Process(0.5, 0.5)
	if l == 0 || r == 0 {
		t.Error("chain should produce output through both stages")
	}
	names := c.Names()
	if len(names) != 2 || names[0] != "distortion" || names[1] != "delay" {
		t.Fatalf("Names() = %v, want [distortion delay]", names)
	}
}

func TestEQ3BandUnityGainIsTransparent(t *testing.T) {
	eq := NewEQ3Band(44100, 1.0, 1.0, 1.0, 300, 3000)
	for i := 0; i < 1000; i++ {
		eq.Process(0.5, 0.5)
	}
	l, r := eq.Process(0.5, 0.5)
	if math.Abs(float64(l)-0.5) > 0.1 || math.Abs(float64(r)-0.5) > 0.1 {
		t.Errorf("expected ~0.5 through unity-gain bands, got l=%f r=%f", l, r)
	}
}

func TestEQ5BandSilencedBandDropsOut(t *testing.T) {
	eq := NewEQ5Band(44100)
	eq.SetGain(0, 0)
	if g := eq.Gain(0); g != 0 {
		t.Fatalf("Gain(0) = %f, want 0 after SetGain(0, 0)", g)
	}
	if g := eq.Gain(4); g != 1.0 {
		t.Fatalf("Gain(4) = %f, want 1.0 (untouched band)", g)
	}
}

func TestCompressorReducesSustainedLoudSignal(t *testing.T) {
	c := NewCompressor(44100, -10, 4, 1, 50, 0)
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("compressor should reduce a sustained full-scale input, got %f", out)
	}
}

func TestResetClearsStageState(t *testing.T) {
	d := NewDelay(44100, 50, 0.5, 0, 0.5)
	d.Process(1.0, 1.0)
	d.Reset()
	l, r := d.Process(0, 0)
	if l != 0 || r != 0 {
		t.Fatalf("expected silence right after Reset, got l=%f r=%f", l, r)
	}
}
