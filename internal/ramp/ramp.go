// Package ramp implements the Line parameter trajectory (spec §4.2): a
// per-parameter value that either holds steady at v0 or lineally traverses
// v0->vt across a fixed number of samples under a named curve, collapsing
// exactly onto vt when the ramp completes.
package ramp

import "math"

// Curve names the shape a Line's goal-seeking fill follows.
type Curve int

const (
	Sah Curve = iota // sample-and-hold: constant v0
	Lin              // affine v0->vt
	Cos              // raised-cosine v0->vt
	Exp              // exponential-shaped (§4.2a), decay on descent / saturating on ascent
	Log              // complementary shape to Exp
	Xpe              // optional extra: steeper exponential-like variant
	Lge              // optional extra: steeper logarithmic-like variant
)

// Flag bits track which fields of a Line currently carry meaningful,
// explicitly-set state, per spec §3/§4.2 Line attributes.
type Flag uint8

const (
	FlagState Flag = 1 << iota
	FlagStateRatio
	FlagGoal
	FlagGoalRatio
	FlagTime
	FlagFillType
)

// Line is a parameter trajectory: current value v0, goal vt, elapsed pos
// within a ramp of length end samples, under curve, plus the flags that
// record which aspects of this state were explicitly set.
type Line struct {
	V0    float64
	Vt    float64
	Pos   int
	End   int
	Curve Curve
	Flags Flag
}

// HasGoal reports whether the Line has an active goal (GOAL flag set); if
// clear, the Line yields the constant V0 per the invariant in spec §3.
func (l *Line) HasGoal() bool { return l.Flags&FlagGoal != 0 }

func (l *Line) ratioState() bool { return l.Flags&FlagStateRatio != 0 }
func (l *Line) ratioGoal() bool  { return l.Flags&FlagGoalRatio != 0 }

// Get writes up to k = min(n, end-pos) samples following the curve into
// out[:k], starting at the Line's current pos, without advancing pos.
// Sample i holds the curve's value at pos+i+1, so the sample that completes
// the ramp (pos+i+1 == end) is exactly vt. If
// GOAL is clear, it writes nothing and returns 0. If exactly one of
// STATE_RATIO/GOAL_RATIO is set, v0 is reconciled by mulbuf[0] once, at the
// start of the ramp (pos == 0), before the curve is evaluated (per spec
// §4.2); if both are set, every produced sample on every call is scaled by
// the matching element of mulbuf.
func (l *Line) Get(out []float64, mulbuf []float64) int {
	if !l.HasGoal() {
		return 0
	}
	n := len(out)
	remaining := l.End - l.Pos
	if remaining < 0 {
		remaining = 0
	}
	k := n
	if remaining < k {
		k = remaining
	}
	if k <= 0 {
		return 0
	}

	if l.Pos == 0 {
		l.reconcile(mulbuf)
	}

	bothRatio := l.ratioState() && l.ratioGoal()
	for i := 0; i < k; i++ {
		v := l.valueAt(l.Pos + i + 1)
		if bothRatio {
			v *= ratioAt(mulbuf, i)
		}
		out[i] = v
	}
	return k
}

// Run calls Get, advances pos by the produced count, and if the ramp has
// completed (pos == end) collapses v0<-vt, clears GOAL and TIME, and fills
// the remainder of out with the held value. Returns whether the goal is
// still active after the call.
func (l *Line) Run(out []float64, mulbuf []float64) bool {
	if !l.HasGoal() {
		l.fillHeld(out, 0, mulbuf)
		return false
	}

	k := l.Get(out, mulbuf)
	l.Pos += k

	if l.Pos >= l.End {
		l.V0 = l.Vt
		l.Flags &^= FlagGoal | FlagTime
		l.fillHeld(out, k, mulbuf)
		return false
	}
	return true
}

// fillHeld writes the Line's constant held value (V0, ratio-scaled by
// mulbuf when STATE_RATIO is set) into out[from:].
func (l *Line) fillHeld(out []float64, from int, mulbuf []float64) {
	ratio := l.ratioState()
	for i := from; i < len(out); i++ {
		v := l.V0
		if ratio {
			v *= ratioAt(mulbuf, i)
		}
		out[i] = v
	}
}

// Skip advances pos by n samples without producing values, applying the
// same terminal collapse as Run when the ramp completes. Returns whether
// the goal is still active after the call.
func (l *Line) Skip(n int) bool {
	if !l.HasGoal() {
		return false
	}
	l.Pos += n
	if l.Pos >= l.End {
		l.V0 = l.Vt
		l.Flags &^= FlagGoal | FlagTime
		return false
	}
	return true
}

// reconcile applies the STATE_RATIO/GOAL_RATIO single-sided adjustment: if
// exactly one of the two ratio flags is set, v0 is multiplied or divided by
// mulbuf[0] so that later per-sample math need not special-case it. Get only
// calls this at l.Pos == 0 (spec §9: "a reconciliation step when the mode
// changes at runtime") so the correction fires once when a goal newly
// engages ratio mode, not on every block of an in-progress, multi-block
// ramp — callers such as the generator that re-assert STATE_RATIO on every
// block would otherwise make v0 compound each call.
func (l *Line) reconcile(mulbuf []float64) {
	stateRatio, goalRatio := l.ratioState(), l.ratioGoal()
	if stateRatio == goalRatio {
		return
	}
	m := ratioAt(mulbuf, 0)
	if m == 0 {
		return
	}
	if stateRatio && !goalRatio {
		l.V0 *= m
	} else if goalRatio && !stateRatio {
		l.V0 /= m
	}
}

// ratioAt treats a nil mulbuf as all-ones (preferred behavior for Testable
// Property 11) rather than a programmer error.
func ratioAt(mulbuf []float64, i int) float64 {
	if mulbuf == nil {
		return 1
	}
	if i >= len(mulbuf) {
		i = len(mulbuf) - 1
	}
	if i < 0 {
		return 1
	}
	return mulbuf[i]
}

// valueAt computes the curve's value at absolute sample index pos (0 <=
// pos <= end), without mutating the Line.
func (l *Line) valueAt(pos int) float64 {
	if l.End <= 0 {
		return l.Vt
	}
	p := float64(pos) / float64(l.End)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	switch l.Curve {
	case Lin:
		return l.V0 + (l.Vt-l.V0)*p
	case Cos:
		return l.V0 + (l.Vt-l.V0)*(1-math.Cos(p*math.Pi))/2
	case Exp:
		if l.V0 >= l.Vt {
			return l.Vt + (l.V0-l.Vt)*shapeR(1-p)
		}
		return l.V0 + (l.Vt-l.V0)*(1-shapeR(1-p))
	case Log:
		if l.V0 >= l.Vt {
			return l.Vt + (l.V0-l.Vt)*(1-shapeR(p))
		}
		return l.V0 + (l.Vt-l.V0)*shapeR(p)
	case Xpe:
		return l.V0 + (l.Vt-l.V0)*(p*p)
	case Lge:
		return l.V0 + (l.Vt-l.V0)*(1-(1-p)*(1-p))
	default: // Sah
		return l.V0
	}
}

// shapeR is the §4.2a exponential-ish shape polynomial, r(x) for x in
// [0,1], r(0)=0, r(1)=1, monotone.
func shapeR(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	x2 := x * x
	x3 := x2 * x
	return x3 + (x2*x3-x2)*(x*(629.0/1792.0)+x2*(1163.0/1792.0))
}

// Update carries a partial Line change, as arrives in a Program Event
// payload (spec §4.4). Mask selects which fields are meaningful; fields
// outside the mask are ignored and the Line's existing state for them is
// preserved (spec §4.2 "Copy semantics").
type Update struct {
	Mask  Flag    `json:"mask"`
	V0    float64 `json:"v0"`
	Vt    float64 `json:"vt"`
	End   int     `json:"end"`
	Curve Curve   `json:"curve"`
}

// Apply merges an incoming partial update into the Line, per the copy
// semantics in spec §4.2: fields absent from Mask keep their current
// value, and if both the existing and incoming state describe an active
// goal but the update carries no fresh STATE, the new V0 is the Line's
// current sampled value at its current Pos (so the ramp continues smoothly
// from wherever it actually was, not from a stale v0).
func (l *Line) Apply(u Update) {
	hadGoal := l.HasGoal()
	settingGoal := u.Mask&FlagGoal != 0
	settingState := u.Mask&FlagState != 0

	if hadGoal && settingGoal && !settingState {
		l.V0 = l.valueAt(l.Pos)
	} else if settingState {
		l.V0 = u.V0
	}

	if u.Mask&FlagGoalRatio != 0 {
		l.Flags = (l.Flags &^ FlagGoalRatio) | (u.Mask & FlagGoalRatio)
	}
	if u.Mask&FlagStateRatio != 0 {
		l.Flags = (l.Flags &^ FlagStateRatio) | (u.Mask & FlagStateRatio)
	}
	if settingGoal {
		l.Vt = u.Vt
		l.End = u.End
		l.Pos = 0
		l.Flags |= FlagGoal
	}
	if u.Mask&FlagTime != 0 {
		l.Flags |= FlagTime
	}
	if u.Mask&FlagFillType != 0 {
		l.Curve = u.Curve
	}
}
