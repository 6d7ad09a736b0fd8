// Package render implements the render loop (spec §4.6): a thin driver
// that repeatedly calls a Generator for fixed-size blocks and dispatches
// each produced block to zero, one, or both of a system-audio sink and a
// WAV sink, optionally passing the mix through a post-effects chain.
package render

import (
	"fmt"

	"github.com/cbegin/saugo/internal/effectschain"
)

// WavFile is the render loop's file sink (spec §6).
type WavFile interface {
	Write(samples []int16) bool
	Close() error
}

// generatorSource is the subset of *generator.Generator the loop depends
// on, kept narrow so tests can drive the loop with a fake.
type generatorSource interface {
	Run(out []int16, stereo bool) (int, bool)
}

// Options configures a Loop.
type Options struct {
	SampleRate int
	Stereo     bool
	// BlockMillis sizes each Generator.Run call; spec §4.6 suggests about
	// 256ms, clamped to at least one sample. Zero selects the default.
	BlockMillis int
	// Diag receives "label: message" diagnostics for soft errors (spec §7).
	Diag func(label, msg string)
}

// Loop drives a Generator and fans its output out to sinks.
type Loop struct {
	gen     generatorSource
	opts    Options
	devices []AudioDev
	wavs    []WavFile
	effects *effectschain.Chain
}

// NewLoop builds a Loop around gen.
func NewLoop(gen generatorSource, opts Options) *Loop {
	return &Loop{gen: gen, opts: opts}
}

// AddAudioDevice registers a system-audio sink.
func (l *Loop) AddAudioDevice(d AudioDev) { l.devices = append(l.devices, d) }

// AddWavFile registers a WAV sink.
func (l *Loop) AddWavFile(w WavFile) { l.wavs = append(l.wavs, w) }

// SetEffects installs an optional post-mix effects chain.
func (l *Loop) SetEffects(c *effectschain.Chain) {
	l.effects = c
	if c != nil {
		l.diag("effects", fmt.Sprintf("post-mix chain: %v", c.Names()))
	}
}

func (l *Loop) channels() int {
	if l.opts.Stereo {
		return 2
	}
	return 1
}

func (l *Loop) blockFrames() int {
	ms := l.opts.BlockMillis
	if ms <= 0 {
		ms = 256
	}
	frames := l.opts.SampleRate * ms / 1000
	if frames < 1 {
		frames = 1
	}
	return frames
}

// Run drives the Generator to completion (more == false), writing each
// block to every registered sink. It stops and returns an error on the
// first WAV SinkWriteError (spec §7); audio-device write failures are
// logged as BufferUnderrun diagnostics and rendering continues.
func (l *Loop) Run() error {
	channels := l.channels()
	buf := make([]int16, l.blockFrames()*channels)

	for {
		produced, more := l.gen.Run(buf, l.opts.Stereo)
		chunk := buf[:produced*channels]

		if l.effects != nil {
			l.effects.ProcessInt16(chunk, l.opts.Stereo)
		}

		deviceChunk := chunk
		var stereoScratch []int16
		if channels == 1 && len(l.devices) > 0 {
			stereoScratch = make([]int16, produced*2)
			for i, s := range chunk {
				stereoScratch[2*i] = s
				stereoScratch[2*i+1] = s
			}
			deviceChunk = stereoScratch
		}
		for _, d := range l.devices {
			if !d.Write(deviceChunk) {
				l.diag("audiodev", "buffer underrun, continuing")
			}
		}

		for _, w := range l.wavs {
			if !w.Write(chunk) {
				return fmt.Errorf("render: WAV sink write failed")
			}
		}

		if !more {
			break
		}
	}
	return nil
}

// Close closes every registered sink, returning the first error
// encountered (after attempting to close the rest).
func (l *Loop) Close() error {
	var firstErr error
	for _, d := range l.devices {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, w := range l.wavs {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *Loop) diag(label, msg string) {
	if l.opts.Diag != nil {
		l.opts.Diag(label, msg)
	}
}
