package render

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WavWriter is a streaming RIFF/WAVE PCM16 sink (spec §6): it writes a
// placeholder header at Create, appends sample data as it arrives, and
// patches the RIFF and data chunk sizes by seeking back at Close.
type WavWriter struct {
	f          *os.File
	channels   int
	sampleRate int
	dataBytes  uint32
	closed     bool
}

// NewWavWriter creates path and writes a 44-byte PCM16 header with the
// data/RIFF sizes left as placeholders.
func NewWavWriter(path string, channels, sampleRate int) (*WavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &WavWriter{f: f, channels: channels, sampleRate: sampleRate}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *WavWriter) writeHeader() error {
	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	// bytes 4:8 (RIFF size) patched at Close
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	byteRate := uint32(w.channels * w.sampleRate * 2)
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	blockAlign := uint16(w.channels * 2)
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], 16) // bits per sample
	copy(hdr[36:40], "data")
	// bytes 40:44 (data size) patched at Close
	_, err := w.f.Write(hdr[:])
	return err
}

// Write appends interleaved PCM16 samples. It returns false (SinkWriteError,
// spec §7) on any short write or I/O error.
func (w *WavWriter) Write(samples []int16) bool {
	if w.closed {
		return false
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	n, err := w.f.Write(buf)
	w.dataBytes += uint32(n)
	return err == nil && n == len(buf)
}

// Close patches the RIFF and data chunk sizes via Seek, per spec §6, then
// closes the file.
func (w *WavWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var sz [4]byte
	if _, err := w.f.Seek(4, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("render: seek RIFF size: %w", err)
	}
	binary.LittleEndian.PutUint32(sz[:], 36+w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		w.f.Close()
		return fmt.Errorf("render: write RIFF size: %w", err)
	}

	if _, err := w.f.Seek(40, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("render: seek data size: %w", err)
	}
	binary.LittleEndian.PutUint32(sz[:], w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		w.f.Close()
		return fmt.Errorf("render: write data size: %w", err)
	}

	return w.f.Close()
}
