package program

import "testing"

func TestValidateRejectsZeroSampleRate(t *testing.T) {
	p := &Program{SampleRate: 0, VoiceCount: 1, OperatorCount: 1}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestValidateRejectsOutOfRangeVoiceID(t *testing.T) {
	p := &Program{
		SampleRate: 48000, VoiceCount: 1, OperatorCount: 1,
		Events: []Event{{Params: PVoiceAttr, Voice: &VoicePayload{VoiceID: 5}}},
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range voice id")
	}
}

func TestValidateRejectsOutOfRangeAdjacency(t *testing.T) {
	p := &Program{
		SampleRate: 48000, VoiceCount: 1, OperatorCount: 2,
		Events: []Event{{Params: POpAdj, Operator: &OperatorPayload{
			OperatorID: 0, FMCount: 1, Adjcs: []int{9},
		}}},
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range adjacency id")
	}
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	p := &Program{
		SampleRate: 48000, VoiceCount: 1, OperatorCount: 2,
		Events: []Event{
			{Params: PVoiceGraph, Voice: &VoicePayload{VoiceID: 0, Graph: []int{0}}},
			{Params: POpAdj, Operator: &OperatorPayload{OperatorID: 0, FMCount: 1, Adjcs: []int{1}}},
		},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdjacencySplitByRole(t *testing.T) {
	op := &OperatorPayload{FMCount: 2, PMCount: 1, AMCount: 1, Adjcs: []int{10, 11, 20, 30}}
	if got := op.FM(); len(got) != 2 || got[0] != 10 || got[1] != 11 {
		t.Fatalf("FM() = %v", got)
	}
	if got := op.PM(); len(got) != 1 || got[0] != 20 {
		t.Fatalf("PM() = %v", got)
	}
	if got := op.AM(); len(got) != 1 || got[0] != 30 {
		t.Fatalf("AM() = %v", got)
	}
}
