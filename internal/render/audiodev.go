package render

import (
	"sync"

	"github.com/cbegin/saugo/internal/audio"
)

// AudioDev is the render loop's system-audio sink (spec §6): push
// interleaved PCM16 stereo samples, get a success flag back.
type AudioDev interface {
	Write(samples []int16) bool
	Close() error
}

// queueSource bridges the render loop's push model to internal/audio's
// pull-based SampleSource (it is read from inside the ebiten player's own
// goroutine via Process). Pushed blocks queue up; Process drains them,
// blocking the audio callback only when the queue is empty and still open.
type queueSource struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   [][]float32
	pending []float32
	closed  bool
}

func newQueueSource() *queueSource {
	q := &queueSource{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queueSource) push(samples []int16) bool {
	floats := make([]float32, len(samples))
	for i, s := range samples {
		floats[i] = float32(s) / 32768
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.queue = append(q.queue, floats)
	q.cond.Signal()
	q.mu.Unlock()
	return true
}

// Process implements audio.SampleSource.
func (q *queueSource) Process(dst []float32) {
	need := len(dst)
	filled := 0
	q.mu.Lock()
	for filled < need {
		if len(q.pending) == 0 {
			if len(q.queue) == 0 {
				if q.closed {
					break
				}
				q.cond.Wait()
				continue
			}
			q.pending = q.queue[0]
			q.queue = q.queue[1:]
		}
		n := copy(dst[filled:], q.pending)
		q.pending = q.pending[n:]
		filled += n
	}
	q.mu.Unlock()
	for i := filled; i < need; i++ {
		dst[i] = 0
	}
}

// Finished implements audio.FinishingSource.
func (q *queueSource) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.queue) == 0 && len(q.pending) == 0
}

func (q *queueSource) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// EbitenDevice is the AudioDev implementation backed by ebitengine's audio
// context/player (teacher's only domain dependency, internal/audio).
type EbitenDevice struct {
	player *audio.Player
	src    *queueSource
}

// NewEbitenDevice opens the shared ebiten audio context at sampleRate and
// starts playback; stereo float32 samples are always expected downstream
// (internal/audio's reader always pulls interleaved stereo frames), so mono
// Generator output is
// duplicated to both channels by the render loop before reaching Write.
func NewEbitenDevice(sampleRate int) (*EbitenDevice, error) {
	src := newQueueSource()
	player, err := audio.NewPlayer(sampleRate, src)
	if err != nil {
		return nil, err
	}
	player.Play()
	return &EbitenDevice{player: player, src: src}, nil
}

func (d *EbitenDevice) Write(samples []int16) bool {
	return d.src.push(samples)
}

func (d *EbitenDevice) Close() error {
	d.src.close()
	return d.player.Stop()
}
