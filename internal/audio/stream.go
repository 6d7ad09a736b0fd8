// Package audio wraps ebitengine's audio context/player so render.AudioDev
// has somewhere to push the Generator's mixdown: ebiten's player pulls
// interleaved stereo float32 bytes from an io.Reader on its own goroutine,
// so this package adapts a push-style SampleSource into that pull contract.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// bytesPerFrame is one stereo float32 frame (2 channels * 4 bytes), the
// unit ebiten's NewPlayerF32 reads in.
const bytesPerFrame = 8

// SampleSource fills dst with interleaved stereo float32 samples in [-1,1].
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that knows when its producer is done.
// Once Finished reports true, the next Read returns io.EOF so ebiten's
// player stops itself instead of looping silence forever.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// frameReader turns a SampleSource into the io.Reader ebiten's player
// wants: little-endian float32 pairs, one Process call per Read.
type frameReader struct {
	mu      sync.Mutex
	source  SampleSource
	scratch []float32
}

func (fr *frameReader) Read(p []byte) (int, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	floats := frames * 2
	if cap(fr.scratch) < floats {
		fr.scratch = make([]float32, floats)
	}
	fr.scratch = fr.scratch[:floats]
	fr.source.Process(fr.scratch)

	for i, v := range fr.scratch {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}

	n := frames * bytesPerFrame
	if fin, ok := fr.source.(FinishingSource); ok && fin.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (fr *frameReader) Close() error { return nil }

// Player drives one ebiten audio player sourced from a SampleSource.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// ctxRegistry serializes creation of ebiten's process-wide audio.Context:
// the library permits only one per process, so every Player in this run
// must agree on a single rate.
type ctxRegistry struct {
	once       sync.Once
	ctx        *ebitaudio.Context
	err        error
	sampleRate int
}

var sharedCtx ctxRegistry

func (c *ctxRegistry) get(sampleRate int) (*ebitaudio.Context, error) {
	c.once.Do(func() {
		c.sampleRate = sampleRate
		c.ctx = ebitaudio.NewContext(sampleRate)
	})
	if c.err != nil {
		return nil, c.err
	}
	if c.sampleRate != sampleRate {
		return nil, fmt.Errorf("audio: context already opened at %d Hz, cannot also open at %d Hz", c.sampleRate, sampleRate)
	}
	return c.ctx, nil
}

// NewPlayer opens (or reuses) the shared audio context at sampleRate and
// attaches source to a new player, stopped.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedCtx.get(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := &frameReader{source: source}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position reports how far into the stream playback has actually reached,
// which lags behind how much has been pushed by however much is buffered.
func (p *Player) Position() time.Duration { return p.player.Position() }

// Stop pauses and releases the underlying ebiten player and its reader.
func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
