// Package program defines the compiled Program IR (spec §3, §4.4): an
// immutable, time-ordered Event list addressing voices and operators by
// dense integer id, with sample-accurate ramp payloads. The Program is
// built once by an external compiler (out of this core's scope, per
// spec §1) and is read-only during rendering.
package program

import (
	"fmt"

	"github.com/cbegin/saugo/internal/ramp"
	"github.com/cbegin/saugo/internal/wavetables"
)

// TimeInfinite marks an operator's remaining time as never-ending.
const TimeInfinite = -1

// VoiceAttr is the voice attribute bitset (spec §3).
type VoiceAttr uint8

const (
	VoiceInitialized VoiceAttr = 1 << iota
	VoiceExecuting
)

// OpAttr is the operator attribute bitset (spec §3): FREQRATIO selects
// whether the operator's frequency tracks a ratio of its parent's frequency
// rather than an absolute Hz value. Whether a freq or amp Line currently
// has an active goal (spec's VALITFREQ) is carried by the Line itself
// (ramp.FlagGoal) rather than duplicated here.
type OpAttr uint8

const (
	OpFreqRatio OpAttr = 1 << iota
)

// VoicePayload carries the voice fields an Event may change.
type VoicePayload struct {
	VoiceID int         `json:"voice_id"`
	Attr    VoiceAttr   `json:"attr"`
	Pan     ramp.Update `json:"pan"`
	Graph   []int       `json:"graph,omitempty"` // ordered top-level ("carrier") operator ids
}

// OperatorPayload carries the operator fields an Event may change.
// Adjcs is a flat list of operator ids for the FM, PM, then AM modulation
// roles, split by FMCount/PMCount/AMCount in that order (spec §4.4).
type OperatorPayload struct {
	OperatorID int             `json:"operator_id"`
	Wave       wavetables.Wave `json:"wave"`
	Attr       OpAttr          `json:"attr"`
	Freq       ramp.Update     `json:"freq"`
	DynFreq    float64         `json:"dynfreq"`
	Phase      uint32          `json:"phase"`
	Amp        ramp.Update     `json:"amp"`
	DynAmp     float64         `json:"dynamp"`
	Silence    int             `json:"silence"`
	Time       int             `json:"time"` // samples remaining, or TimeInfinite

	FMCount int   `json:"fmodc"`
	PMCount int   `json:"pmodc"`
	AMCount int   `json:"amodc"`
	Adjcs   []int `json:"adjcs,omitempty"`
}

// FM returns the operator ids in the FM modulation role.
func (p *OperatorPayload) FM() []int { return p.Adjcs[:p.FMCount] }

// PM returns the operator ids in the PM modulation role.
func (p *OperatorPayload) PM() []int { return p.Adjcs[p.FMCount : p.FMCount+p.PMCount] }

// AM returns the operator ids in the AM modulation role.
func (p *OperatorPayload) AM() []int {
	return p.Adjcs[p.FMCount+p.PMCount : p.FMCount+p.PMCount+p.AMCount]
}

// ParamBit selects which payload fields an Event actually changes.
type ParamBit uint32

const (
	PVoiceAttr ParamBit = 1 << iota
	PVoicePan
	PVoiceGraph
	POpWave
	POpAttr
	POpFreq
	POpDynFreq
	POpPhase
	POpAmp
	POpDynAmp
	POpSilence
	POpTime
	POpAdj
)

// HasVoice reports whether Params selects any voice field.
func (pb ParamBit) HasVoice() bool {
	return pb&(PVoiceAttr|PVoicePan|PVoiceGraph) != 0
}

// HasOperator reports whether Params selects any operator field.
func (pb ParamBit) HasOperator() bool {
	return pb&(POpWave|POpAttr|POpFreq|POpDynFreq|POpPhase|POpAmp|POpDynAmp|POpSilence|POpTime|POpAdj) != 0
}

// Event is one time-ordered record in a Program: a delay in samples from
// the previous event's activation, and the voice/operator payloads it
// changes when it fires (spec §4.4).
type Event struct {
	WaitSamples int              `json:"wait_samples"`
	Params      ParamBit         `json:"params"`
	Voice       *VoicePayload    `json:"voice,omitempty"`
	Operator    *OperatorPayload `json:"operator,omitempty"`
}

// Flags are Program-wide rendering options.
type Flags uint8

const (
	// FlagAmpDivVoices divides amplitude by voice count at construction time
	// (spec §9 Open Questions: fixed at Generator.New, never recomputed).
	FlagAmpDivVoices Flags = 1 << iota
)

// Program is the immutable, ordered Event sequence a Generator executes.
type Program struct {
	Events        []Event  `json:"events"`
	VoiceCount    int      `json:"voice_count"`
	OperatorCount int      `json:"operator_count"`
	Flags         Flags    `json:"flags"`
	AmpScale      float64  `json:"amp_scale"`
	SampleRate    int      `json:"sample_rate"`
}

// Validate checks the structural invariants a Generator relies on at
// construction time (spec §7 BadProgram): a positive sample rate and every
// referenced voice/operator id within bounds.
func (p *Program) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("program: sample rate must be positive, got %d", p.SampleRate)
	}
	if p.VoiceCount < 0 || p.OperatorCount < 0 {
		return fmt.Errorf("program: negative voice/operator count")
	}
	for i, ev := range p.Events {
		if ev.WaitSamples < 0 {
			return fmt.Errorf("program: event %d has negative wait_samples", i)
		}
		if ev.Voice != nil {
			if ev.Voice.VoiceID < 0 || ev.Voice.VoiceID >= p.VoiceCount {
				return fmt.Errorf("program: event %d voice id %d out of range [0,%d)", i, ev.Voice.VoiceID, p.VoiceCount)
			}
			for _, id := range ev.Voice.Graph {
				if id < 0 || id >= p.OperatorCount {
					return fmt.Errorf("program: event %d voice graph operator id %d out of range [0,%d)", i, id, p.OperatorCount)
				}
			}
		}
		if ev.Operator != nil {
			if ev.Operator.OperatorID < 0 || ev.Operator.OperatorID >= p.OperatorCount {
				return fmt.Errorf("program: event %d operator id %d out of range [0,%d)", i, ev.Operator.OperatorID, p.OperatorCount)
			}
			for _, id := range ev.Operator.Adjcs {
				if id < 0 || id >= p.OperatorCount {
					return fmt.Errorf("program: event %d operator adjacency id %d out of range [0,%d)", i, id, p.OperatorCount)
				}
			}
		}
	}
	return nil
}
