package generator

import "github.com/cbegin/saugo/internal/program"

// applyEvent applies one Event's operator and voice payloads, operator
// first, per spec §4.5.2.
func (g *Generator) applyEvent(ev *program.Event) {
	if ev.Operator != nil {
		g.applyOperatorPayload(ev.Params, ev.Operator)
	}
	if ev.Voice != nil {
		g.applyVoicePayload(ev.Params, ev.Voice)
	}
}

func (g *Generator) applyOperatorPayload(params program.ParamBit, p *program.OperatorPayload) {
	op := &g.ops[p.OperatorID]

	if params&program.POpAttr != 0 {
		newAttr := p.Attr
		if params&program.POpFreq == 0 {
			// ATTR arriving without a fresh FREQ preserves the existing
			// FREQRATIO bit rather than letting the payload silently reset it
			// (spec §4.5.2 attribute reconciliation).
			if op.Attr&program.OpFreqRatio != 0 {
				newAttr |= program.OpFreqRatio
			} else {
				newAttr &^= program.OpFreqRatio
			}
		}
		op.Attr = newAttr
	}
	if params&program.POpWave != 0 {
		op.Wave = p.Wave
	}
	if params&program.POpFreq != 0 {
		op.Freq.Apply(p.Freq)
	}
	if params&program.POpDynFreq != 0 {
		op.DynFreq = p.DynFreq
	}
	if params&program.POpPhase != 0 {
		op.Osc.Phase = p.Phase
	}
	if params&program.POpAmp != 0 {
		op.Amp.Apply(p.Amp)
	}
	if params&program.POpDynAmp != 0 {
		op.DynAmp = p.DynAmp
	}
	if params&program.POpSilence != 0 {
		op.Silence = p.Silence
	}
	if params&program.POpTime != 0 {
		op.Time = p.Time
		g.applyTimeToCarryingVoices(p.OperatorID, p.Time)
	}
	if params&program.POpAdj != 0 {
		op.FM = append(op.FM[:0:0], p.FM()...)
		op.PM = append(op.PM[:0:0], p.PM()...)
		op.AM = append(op.AM[:0:0], p.AM()...)
		g.graphDirty = true
	}
}

// applyTimeToCarryingVoices implements the spec §4.5.2 TIME/voice interaction:
// setting TIME on an operator that is the top-level carrier of a voice
// resets that voice's pos to 0, clearing EXEC when the new time is zero and
// setting (or re-setting) it otherwise.
func (g *Generator) applyTimeToCarryingVoices(operatorID int, newTime int) {
	for i := range g.voices {
		v := &g.voices[i]
		if len(v.Graph) == 0 || v.Graph[0] != operatorID {
			continue
		}
		v.Pos = 0
		if newTime == 0 {
			v.Attr &^= program.VoiceExecuting
		} else {
			v.Attr |= program.VoiceExecuting
		}
	}
}

func (g *Generator) applyVoicePayload(params program.ParamBit, p *program.VoicePayload) {
	v := &g.voices[p.VoiceID]

	if params&program.PVoiceAttr != 0 {
		v.Attr = p.Attr
	}
	if params&program.PVoicePan != 0 {
		v.Pan.Apply(p.Pan)
	}
	if params&program.PVoiceGraph != 0 {
		v.Graph = append(v.Graph[:0:0], p.Graph...)
		g.graphDirty = true
	}
}

// upsizeBufs pre-grows the scratch buffer pool to cover the deepest
// modulation chain across every voice's graph, so the first block rendered
// after a graph change doesn't allocate mid-walk (spec §4.5.4). Growth only
// ever increases the pool; it is never shrunk.
func (g *Generator) upsizeBufs() {
	visiting := make([]bool, len(g.ops))
	memo := make([]int, len(g.ops))
	for i := range memo {
		memo[i] = -1
	}
	maxDepth := 0
	for i := range g.voices {
		for _, cid := range g.voices[i].Graph {
			d := g.opDepth(cid, visiting, memo)
			if d > maxDepth {
				maxDepth = d
			}
		}
	}
	// Each recursion level can hold up to 4 live buffers at once (freq, the
	// PM accumulator, amp, and the AM accumulator while AM modulators run);
	// a level's own output buffer is counted at the level above, and the
	// extra level covers the voice's carrier buffer.
	g.pool.ensure((maxDepth + 1) * 4)
}

func (g *Generator) opDepth(id int, visiting []bool, memo []int) int {
	if memo[id] >= 0 {
		return memo[id]
	}
	if visiting[id] {
		return 1
	}
	visiting[id] = true
	op := &g.ops[id]
	best := 0
	for _, m := range op.FM {
		if d := g.opDepth(m, visiting, memo); d > best {
			best = d
		}
	}
	for _, m := range op.PM {
		if d := g.opDepth(m, visiting, memo); d > best {
			best = d
		}
	}
	for _, m := range op.AM {
		if d := g.opDepth(m, visiting, memo); d > best {
			best = d
		}
	}
	visiting[id] = false
	memo[id] = best + 1
	return memo[id]
}
