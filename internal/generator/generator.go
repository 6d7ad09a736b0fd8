// Package generator implements the Generator (spec §4.5): it executes a
// compiled Program, walking each voice's operator-modulation graph per
// buffer block, evaluating oscillators with ramp-driven parameters, and
// mixing voices into a stereo int16 output stream with exact event timing
// via block splitting.
package generator

import (
	"fmt"
	"math"

	"github.com/cbegin/saugo/internal/oscillator"
	"github.com/cbegin/saugo/internal/program"
	"github.com/cbegin/saugo/internal/ramp"
	"github.com/cbegin/saugo/internal/wavetables"
)

// BufLen is the scratch-buffer block size used while walking an operator
// graph (spec §4.5).
const BufLen = 256

// opState is the Generator's mutable run-state for one operator, seeded
// from program.Operator defaults and mutated by Event application.
type opState struct {
	Wave    wavetables.Wave
	Osc     oscillator.Oscillator
	Attr    program.OpAttr
	Freq    ramp.Line
	DynFreq float64
	Amp     ramp.Line
	DynAmp  float64
	Silence int
	Time    int // samples remaining, or program.TimeInfinite
	FM      []int
	PM      []int
	AM      []int
	Visited bool
}

// voiceState is the Generator's mutable run-state for one voice.
type voiceState struct {
	Pan   ramp.Line
	Graph []int
	Attr  program.VoiceAttr
	Pos   int
}

// Generator executes a Program. It is not thread-safe; the render loop
// invokes it serially (spec §5).
type Generator struct {
	prog       *program.Program
	sampleRate float64
	ampScale   float64

	voices []voiceState
	ops    []opState

	pool *bufPool

	eventIdx    int
	pendingWait int

	graphDirty    bool
	cycleReported map[int]bool

	// Diag receives soft-error diagnostics (label, message) per spec §7.
	// It may be nil, in which case diagnostics are silently dropped.
	Diag func(label, msg string)
}

// New constructs a Generator for prog at sampleRate. It fails construction
// on a BadProgram condition (spec §7): invalid ids, inconsistent ordering,
// a zero/mismatched sample rate.
func New(prog *program.Program, sampleRate int) (*Generator, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("generator: sample rate must be positive, got %d", sampleRate)
	}
	if prog.SampleRate != 0 && prog.SampleRate != sampleRate {
		return nil, fmt.Errorf("generator: requested sample rate %d does not match program sample rate %d", sampleRate, prog.SampleRate)
	}
	wavetables.Init()

	g := &Generator{
		prog:          prog,
		sampleRate:    float64(sampleRate),
		voices:        make([]voiceState, prog.VoiceCount),
		ops:           make([]opState, prog.OperatorCount),
		pool:          newBufPool(),
		cycleReported: make(map[int]bool),
	}
	for i := range g.ops {
		g.ops[i].Time = program.TimeInfinite
	}

	g.ampScale = prog.AmpScale
	if prog.Flags&program.FlagAmpDivVoices != 0 && prog.VoiceCount > 0 {
		g.ampScale /= float64(prog.VoiceCount)
	}

	if len(prog.Events) > 0 {
		g.pendingWait = prog.Events[0].WaitSamples
	}
	return g, nil
}

// Run produces up to len(out)/channels frames, dispatching Events at exact
// sample positions via block splitting, and returns the number of frames
// actually written plus whether further rendering remains.
func (g *Generator) Run(out []int16, stereo bool) (int, bool) {
	channels := 1
	if stereo {
		channels = 2
	}
	chLen := len(out) / channels
	for i := range out {
		out[i] = 0
	}

	acc := make([]float64, chLen*channels)
	framesLeft := chLen
	outPos := 0

	for framesLeft > 0 {
		if g.eventIdx < len(g.prog.Events) {
			if g.pendingWait <= framesLeft {
				chunk := g.pendingWait
				if chunk > 0 {
					g.processVoices(acc[outPos*channels:(outPos+chunk)*channels], chunk, channels)
					outPos += chunk
					framesLeft -= chunk
				}
				g.applyEvent(&g.prog.Events[g.eventIdx])
				g.eventIdx++
				if g.eventIdx < len(g.prog.Events) {
					g.pendingWait = g.prog.Events[g.eventIdx].WaitSamples
				}
				continue
			}
			g.pendingWait -= framesLeft
			g.processVoices(acc[outPos*channels:(outPos+framesLeft)*channels], framesLeft, channels)
			outPos += framesLeft
			framesLeft = 0
			continue
		}
		g.processVoices(acc[outPos*channels:(outPos+framesLeft)*channels], framesLeft, channels)
		outPos += framesLeft
		framesLeft = 0
	}

	for i, v := range acc {
		out[i] = oscillator.RoundToInt16(v)
	}

	return chLen, g.hasMoreWork()
}

func (g *Generator) hasMoreWork() bool {
	if g.eventIdx < len(g.prog.Events) {
		return true
	}
	for i := range g.voices {
		if g.voices[i].Attr&program.VoiceExecuting != 0 {
			return true
		}
	}
	return false
}

// processVoices dispatches n samples of voice rendering into acc
// (float64, pre-clamp, length n*channels), honoring each voice's
// pending start delay (negative Pos) per spec §4.5.1 step 2.
func (g *Generator) processVoices(acc []float64, n int, channels int) {
	if g.graphDirty {
		g.upsizeBufs()
		g.graphDirty = false
	}
	for id := range g.voices {
		v := &g.voices[id]
		if v.Attr&program.VoiceExecuting == 0 {
			continue
		}
		skip := 0
		if v.Pos < 0 {
			negRemaining := -v.Pos
			if negRemaining >= n {
				v.Pos += n
				continue
			}
			skip = negRemaining
		}
		active := n - skip
		g.runVoice(v, acc, skip, active, channels)
		v.Pos += n
	}
}

// runVoice renders up to active frames for voice v into acc starting at
// frame offset frameOffset, in chunks of at most BufLen, per spec §4.5.3.
func (g *Generator) runVoice(v *voiceState, acc []float64, frameOffset int, active int, channels int) {
	if active <= 0 || len(v.Graph) == 0 {
		return
	}

	carrierTime := program.TimeInfinite
	carrierSilence := 0
	for _, cid := range v.Graph {
		op := &g.ops[cid]
		if op.Silence > carrierSilence {
			carrierSilence = op.Silence
		}
		if op.Time != program.TimeInfinite {
			if carrierTime == program.TimeInfinite || op.Time < carrierTime {
				carrierTime = op.Time
			}
		}
	}

	segment := active
	if carrierTime != program.TimeInfinite && carrierTime < segment {
		segment = carrierTime
	}

	skip := carrierSilence
	if skip > segment {
		skip = segment
	}
	remaining := segment - skip
	pos := skip

	for remaining > 0 {
		chunk := remaining
		if chunk > BufLen {
			chunk = BufLen
		}
		carrierBuf := g.pool.get(chunk)
		for i := range carrierBuf {
			carrierBuf[i] = 0
		}
		for ci, cid := range v.Graph {
			accInd := 0
			if ci > 0 {
				accInd = 1
			}
			g.runBlock(carrierBuf, cid, nil, false, accInd)
		}

		panBuf := g.pool.get(chunk)
		if v.Pan.HasGoal() {
			v.Pan.Run(panBuf, nil)
		} else {
			for i := range panBuf {
				panBuf[i] = v.Pan.V0
			}
		}

		for i := 0; i < chunk; i++ {
			s := carrierBuf[i] * g.ampScale
			pan := panBuf[i]
			l := s * (1 - pan)
			r := s * pan
			frame := frameOffset + pos + i
			base := frame * channels
			if channels == 2 {
				acc[base] += math.Round(l)
				acc[base+1] += math.Round(r)
			} else {
				acc[base] += math.Round(l + r)
			}
		}
		g.pool.release() // panBuf
		g.pool.release() // carrierBuf

		pos += chunk
		remaining -= chunk
	}

	if carrierTime != program.TimeInfinite && segment >= carrierTime {
		v.Attr &^= program.VoiceExecuting
	}
}

// runBlock produces len(buf) samples for operator opID, per spec §4.5.4.
// accInd==0 means overwrite buf; accInd!=0 means accumulate (add for the
// integer/carrier path, multiply for the float/envelope path, per the
// literal §4.5.4 step 6 contract).
func (g *Generator) runBlock(buf []float64, opID int, parentFreq []float64, waveEnv bool, accInd int) {
	n := len(buf)
	if n == 0 {
		return
	}
	op := &g.ops[opID]

	silLen := op.Silence
	if silLen > n {
		silLen = n
	}
	if silLen > 0 {
		if accInd == 0 {
			for i := 0; i < silLen; i++ {
				buf[i] = 0
			}
		}
		op.Silence -= silLen
	}
	rest := buf[silLen:]
	if len(rest) == 0 {
		return
	}

	activeLen := len(rest)
	if op.Time != program.TimeInfinite {
		if op.Time < activeLen {
			tailZero := activeLen - op.Time
			activeLen = op.Time
			if tailZero > 0 && accInd == 0 {
				tail := rest[activeLen:]
				for i := range tail {
					tail[i] = 0
				}
			}
		}
		op.Time -= activeLen
	}
	active := rest[:activeLen]
	if len(active) == 0 {
		return
	}

	if op.Visited {
		g.reportCycle(opID)
		if accInd == 0 {
			for i := range active {
				active[i] = 0
			}
		}
		return
	}
	op.Visited = true
	defer func() { op.Visited = false }()

	m := len(active)

	freqBuf := g.pool.get(m)
	defer g.pool.release()

	ratioMode := op.Attr&program.OpFreqRatio != 0 && parentFreq != nil
	var parentWindow []float64
	if parentFreq != nil {
		parentWindow = parentFreq[silLen : silLen+activeLen]
	}
	if ratioMode {
		op.Freq.Flags |= ramp.FlagStateRatio
		op.Freq.Run(freqBuf, parentWindow)
	} else {
		op.Freq.Flags &^= ramp.FlagStateRatio
		op.Freq.Run(freqBuf, nil)
	}

	if len(op.FM) > 0 {
		fmBuf := g.pool.get(m)
		for i := range fmBuf {
			fmBuf[i] = 0
		}
		for i, mod := range op.FM {
			acc := 0
			if i > 0 {
				acc = 1
			}
			g.runBlock(fmBuf, mod, freqBuf, true, acc)
		}
		for i := range freqBuf {
			if ratioMode {
				freqBuf[i] += (op.DynFreq*parentWindow[i] - freqBuf[i]) * fmBuf[i]
			} else {
				freqBuf[i] += (op.DynFreq - freqBuf[i]) * fmBuf[i]
			}
		}
		g.pool.release()
	}

	var pmBuf []float64
	if len(op.PM) > 0 {
		pmBuf = g.pool.get(m)
		for i := range pmBuf {
			pmBuf[i] = 0
		}
		for i, mod := range op.PM {
			acc := 0
			if i > 0 {
				acc = 1
			}
			g.runBlock(pmBuf, mod, freqBuf, false, acc)
		}
		defer g.pool.release()
	}

	var ampBuf []float64
	if !waveEnv {
		ampBuf = g.pool.get(m)
		defer g.pool.release()
		op.Amp.Run(ampBuf, nil)
		if len(op.AM) > 0 {
			amBuf := g.pool.get(m)
			for i := range amBuf {
				amBuf[i] = 0
			}
			for i, mod := range op.AM {
				acc := 0
				if i > 0 {
					acc = 1
				}
				g.runBlock(amBuf, mod, freqBuf, true, acc)
			}
			for i := range ampBuf {
				ampBuf[i] = ampBuf[i] + amBuf[i]*(op.DynAmp-ampBuf[i])
			}
			g.pool.release()
		}
	}

	lut := wavetables.Lut(op.Wave)
	for i := 0; i < m; i++ {
		var phaseOff int32
		if pmBuf != nil {
			phaseOff = int32(math.Round(pmBuf[i]))
		}
		phase := op.Osc.Phase + uint32(phaseOff)
		s := float64(wavetables.GetLerp(lut, phase))
		if waveEnv {
			if accInd == 0 {
				active[i] = s
			} else {
				active[i] *= s
			}
		} else {
			// The integer path is in 16-bit sample units: amplitude 1.0 is
			// full scale.
			v := math.Round(s * ampBuf[i] * math.MaxInt16)
			if accInd == 0 {
				active[i] = v
			} else {
				active[i] += v
			}
		}
		op.Osc.Phase += oscillator.Step(freqBuf[i], g.sampleRate)
	}
}

func (g *Generator) reportCycle(opID int) {
	if g.cycleReported[opID] {
		return
	}
	g.cycleReported[opID] = true
	if g.Diag != nil {
		g.Diag("cycle", fmt.Sprintf("operator %d: modulation graph cycle detected, subtree silenced", opID))
	}
}

// ActiveVoiceCount returns the number of voices currently executing.
func (g *Generator) ActiveVoiceCount() int {
	n := 0
	for i := range g.voices {
		if g.voices[i].Attr&program.VoiceExecuting != 0 {
			n++
		}
	}
	return n
}
