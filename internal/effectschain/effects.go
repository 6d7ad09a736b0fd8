// Package effectschain implements the optional post-mix stage chain (spec
// §4.6 post-mix, a supplemented feature with no direct spec.md component):
// the Generator's per-voice panned mixdown lands on one shared stereo bus,
// and a Chain runs that bus through zero or more Stages — delay, chorus,
// distortion, compression, EQ, reverb — before the render loop hands the
// block to its sinks.
package effectschain

// Stage processes one stereo frame of the mixdown bus in place and carries
// its own filter/delay-line state across calls.
type Stage interface {
	Process(l, r float32) (float32, float32)
	Reset()
	Name() string
}

// Chain runs the bus through an ordered list of Stages.
type Chain struct {
	stages []Stage
}

// NewChain builds a Chain from stages, applied in the given order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Process runs one stereo frame through every stage in order.
func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, s := range c.stages {
		l, r = s.Process(l, r)
	}
	return l, r
}

// Reset clears every stage's internal state, e.g. between renders of two
// unrelated Programs sharing one Chain.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

// Add appends a stage to the end of the chain.
func (c *Chain) Add(s Stage) {
	c.stages = append(c.stages, s)
}

// Names reports the ordered stage names, for diagnostics (spec §7).
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}
