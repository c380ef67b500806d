package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// WAVInfo is the subset of a PCM WAV header the assertions check.
type WAVInfo struct {
	SampleRate uint32
	Channels   uint16
	BitDepth   uint16
	DataSize   uint32
}

// Duration returns the audio length in seconds.
func (w WAVInfo) Duration() float64 {
	frameSize := uint32(w.Channels) * uint32(w.BitDepth/8)
	if frameSize == 0 || w.SampleRate == 0 {
		return 0
	}
	return float64(w.DataSize/frameSize) / float64(w.SampleRate)
}

// AssertValidWAV checks that data is a 16-bit PCM WAV file with a RIFF
// header, the given sample rate and channel count, and a non-empty data
// chunk. A zero sampleRate or channels skips that check.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate uint32, channels uint16) WAVInfo {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	// fmt chunk fields (little-endian).
	audioFmt := binary.LittleEndian.Uint16(data[20:22])
	if audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	info := WAVInfo{
		Channels:   binary.LittleEndian.Uint16(data[22:24]),
		SampleRate: binary.LittleEndian.Uint32(data[24:28]),
		BitDepth:   binary.LittleEndian.Uint16(data[34:36]),
	}

	if channels != 0 && info.Channels != channels {
		tb.Fatalf("WAV: expected %d channel(s), got %d", channels, info.Channels)
	}

	if sampleRate != 0 && info.SampleRate != sampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.BitDepth != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", info.BitDepth)
	}

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	info.DataSize = dataSize

	if dataSize == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}

	return info
}

// AssertValidMP3 checks that data starts with an ID3 tag or an MPEG frame sync.
func AssertValidMP3(tb testing.TB, data []byte) {
	tb.Helper()

	if len(data) < 4 {
		tb.Fatalf("MP3 data too short: %d bytes", len(data))
	}
	if string(data[:3]) == "ID3" {
		return
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		tb.Fatalf("MP3: no ID3 tag or frame sync at start (got % x)", data[:4])
	}
}

// findDataChunkSize walks the WAV chunk list to locate the "data" sub-chunk
// and returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
