package scoreio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/cbegin/saugo/internal/program"
	"github.com/cbegin/saugo/internal/ramp"
	"github.com/cbegin/saugo/internal/wavetables"
)

func sampleProgram() *program.Program {
	return &program.Program{
		SampleRate:    48000,
		VoiceCount:    1,
		OperatorCount: 1,
		AmpScale:      1,
		Events: []program.Event{
			{
				Params: program.PVoiceGraph | program.POpWave | program.POpFreq | program.POpAmp | program.POpTime,
				Voice:  &program.VoicePayload{VoiceID: 0, Graph: []int{0}},
				Operator: &program.OperatorPayload{
					OperatorID: 0,
					Wave:       wavetables.Sin,
					Freq:       ramp.Update{Mask: ramp.FlagState, V0: 440},
					Amp:        ramp.Update{Mask: ramp.FlagState, V0: 0.5},
					Time:       48000,
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := sampleProgram()
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SampleRate != p.SampleRate || got.VoiceCount != p.VoiceCount {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if len(got.Events) != 1 || got.Events[0].Operator.Wave != wavetables.Sin {
		t.Fatalf("round-trip event mismatch: %+v", got.Events)
	}
	if got.Events[0].Operator.Freq.V0 != 440 {
		t.Fatalf("round-trip freq mismatch: %+v", got.Events[0].Operator.Freq)
	}
}

func TestDecodeRejectsInvalidProgram(t *testing.T) {
	_, err := Decode(bytes.NewBufferString(`{"sample_rate": 0}`))
	if err == nil {
		t.Fatalf("expected validation error for zero sample rate")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.json")
	p := sampleProgram()
	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.OperatorCount != p.OperatorCount {
		t.Fatalf("mismatch after Save/Load: %+v", got)
	}
}
