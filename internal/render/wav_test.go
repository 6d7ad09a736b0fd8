package render

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWavWriterHeaderAndChunkSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWavWriter(path, 2, 48000)
	if err != nil {
		t.Fatalf("NewWavWriter: %v", err)
	}
	samples := make([]int16, 2000) // 1000 stereo frames
	for i := range samples {
		samples[i] = int16(i)
	}
	if !w.Write(samples) {
		t.Fatalf("Write failed")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("file length = %d, want %d", len(data), 44+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		t.Fatalf("missing fmt/data chunk ids")
	}
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if want := uint32(36 + len(samples)*2); riffSize != want {
		t.Fatalf("RIFF size = %d, want %d", riffSize, want)
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if want := uint32(len(samples) * 2); dataSize != want {
		t.Fatalf("data size = %d, want %d", dataSize, want)
	}
	channels := binary.LittleEndian.Uint16(data[22:24])
	srate := binary.LittleEndian.Uint32(data[24:28])
	if channels != 2 || srate != 48000 {
		t.Fatalf("fmt chunk channels/srate = %d/%d, want 2/48000", channels, srate)
	}
	byteRate := binary.LittleEndian.Uint32(data[28:32])
	if byteRate != 2*48000*2 {
		t.Fatalf("byte rate = %d, want %d", byteRate, 2*48000*2)
	}
}

func TestWavWriterWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWavWriter(path, 1, 44100)
	if err != nil {
		t.Fatalf("NewWavWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Write([]int16{1, 2, 3}) {
		t.Fatalf("expected Write after Close to fail")
	}
}
