package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

// makeWAV builds a minimal valid 16-bit PCM WAV file of silence.
func makeWAV(sampleRate uint32, numChannels uint16, numFrames int) []byte {
	const bitDepth = 16
	blockAlign := numChannels * bitDepth / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(numFrames) * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitDepth))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for range numFrames * int(numChannels) {
		_ = binary.Write(buf, binary.LittleEndian, int16(0))
	}

	return buf.Bytes()
}

// mustEncodeWAV encodes PCM or fails the test.
func mustEncodeWAV(t *testing.T, p PCM) []byte {
	t.Helper()
	data, err := EncodeWAV(p)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return data
}

func TestDecodeWAV(t *testing.T) {
	t.Run("decodes mono", func(t *testing.T) {
		pcm, err := DecodeWAV(makeWAV(24000, 1, 100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pcm.SampleRate != 24000 || pcm.Channels != 1 {
			t.Errorf("format = %d Hz / %d ch, want 24000 Hz / 1 ch", pcm.SampleRate, pcm.Channels)
		}
		if pcm.Frames() != 100 {
			t.Errorf("got %d frames, want 100", pcm.Frames())
		}
	})

	t.Run("accepts other rates and stereo", func(t *testing.T) {
		pcm, err := DecodeWAV(makeWAV(44100, 2, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pcm.SampleRate != 44100 || pcm.Channels != 2 || pcm.Frames() != 10 {
			t.Errorf("got %d Hz / %d ch / %d frames", pcm.SampleRate, pcm.Channels, pcm.Frames())
		}
	})

	t.Run("rejects invalid WAV data", func(t *testing.T) {
		if _, err := DecodeWAV([]byte("not a wav file")); err == nil {
			t.Fatal("expected error for invalid WAV")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, err := DecodeWAV(nil); err == nil {
			t.Fatal("expected error for nil input")
		}
	})
}

func TestEncodeWAV(t *testing.T) {
	t.Run("writes header fields", func(t *testing.T) {
		data := mustEncodeWAV(t, PCM{SampleRate: 22050, Channels: 2, Samples: make([]float32, 40)})

		if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Fatalf("missing RIFF/WAVE markers")
		}
		if got := binary.LittleEndian.Uint32(data[24:28]); got != 22050 {
			t.Errorf("sample rate = %d, want 22050", got)
		}
		if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
			t.Errorf("channels = %d, want 2", got)
		}
		if got := binary.LittleEndian.Uint16(data[34:36]); got != OutputBitDepth {
			t.Errorf("bit depth = %d, want %d", got, OutputBitDepth)
		}
	})

	t.Run("rejects invalid sample rate", func(t *testing.T) {
		if _, err := EncodeWAV(PCM{SampleRate: 0, Channels: 1}); err == nil {
			t.Fatal("expected error for zero sample rate")
		}
	})

	t.Run("rejects invalid channel count", func(t *testing.T) {
		if _, err := EncodeWAV(PCM{SampleRate: 24000, Channels: 0}); err == nil {
			t.Fatal("expected error for zero channels")
		}
	})
}

func TestDecodeEncodeRoundtrip(t *testing.T) {
	original := []float32{0.0, 0.5, -0.5, 1.0, -1.0}
	decoded, err := DecodeWAV(mustEncodeWAV(t, PCM{SampleRate: 24000, Channels: 1, Samples: original}))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(decoded.Samples) != len(original) {
		t.Fatalf("roundtrip: got %d samples, want %d", len(decoded.Samples), len(original))
	}

	// 16-bit quantization introduces error up to ~1/32768.
	const tolerance = 1.0 / 32768.0 * 2
	for i, want := range original {
		got := decoded.Samples[i]
		if math.Abs(float64(got-want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f (tolerance %f)", i, got, want, tolerance)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "out.wav", want: FormatWAV},
		{path: "dir/OUT.WAV", want: FormatWAV},
		{path: "narration.mp3", want: FormatMP3},
		{path: "track.ogg", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("FormatFromPath(%q): expected error", tt.path)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
		}
	}
}

func TestConform(t *testing.T) {
	t.Run("identity when formats match", func(t *testing.T) {
		in := PCM{SampleRate: 16000, Channels: 1, Samples: []float32{0.1, 0.2}}
		out, err := Conform(in, 16000, 1)
		if err != nil {
			t.Fatalf("Conform: %v", err)
		}
		if len(out.Samples) != 2 || out.Samples[1] != 0.2 {
			t.Errorf("unexpected samples %v", out.Samples)
		}
	})

	t.Run("mono to stereo duplicates", func(t *testing.T) {
		out, err := Conform(PCM{SampleRate: 8000, Channels: 1, Samples: []float32{0.25, -0.5}}, 8000, 2)
		if err != nil {
			t.Fatalf("Conform: %v", err)
		}
		want := []float32{0.25, 0.25, -0.5, -0.5}
		if len(out.Samples) != len(want) {
			t.Fatalf("got %v, want %v", out.Samples, want)
		}
		for i := range want {
			if out.Samples[i] != want[i] {
				t.Errorf("sample[%d] = %f, want %f", i, out.Samples[i], want[i])
			}
		}
	})

	t.Run("stereo to mono averages", func(t *testing.T) {
		out, err := Conform(PCM{SampleRate: 8000, Channels: 2, Samples: []float32{0.5, 0.0}}, 8000, 1)
		if err != nil {
			t.Fatalf("Conform: %v", err)
		}
		if len(out.Samples) != 1 || math.Abs(float64(out.Samples[0]-0.25)) > 1e-6 {
			t.Errorf("got %v, want [0.25]", out.Samples)
		}
	})

	t.Run("resampling scales duration", func(t *testing.T) {
		in := PCM{SampleRate: 8000, Channels: 1, Samples: make([]float32, 8000)}
		out, err := Conform(in, 16000, 1)
		if err != nil {
			t.Fatalf("Conform: %v", err)
		}
		if frames := out.Frames(); frames < 15900 || frames > 16100 {
			t.Errorf("resampled frames = %d, want about 16000", frames)
		}
	})

	t.Run("rejects surround input", func(t *testing.T) {
		if _, err := Conform(PCM{SampleRate: 8000, Channels: 6}, 8000, 2); err == nil {
			t.Fatal("expected error for 6-channel input")
		}
	})
}

func TestConcatMP3_StripsTags(t *testing.T) {
	frameA := []byte{0xFF, 0xFB, 0x90, 0x00, 0x01}
	frameB := []byte{0xFF, 0xFB, 0x90, 0x00, 0x02}

	// ID3v2 header with a 3-byte body.
	tagged := append([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 3, 'a', 'b', 'c'}, frameA...)
	// ID3v1 trailer.
	trailer := make([]byte, id3v1Size)
	copy(trailer, "TAG")
	withTrailer := append(append([]byte(nil), frameB...), trailer...)

	got, err := ConcatMP3([][]byte{tagged, withTrailer})
	if err != nil {
		t.Fatalf("ConcatMP3: %v", err)
	}
	want := append(append([]byte(nil), frameA...), frameB...)
	if !bytes.Equal(got, want) {
		t.Fatalf("ConcatMP3 = %x, want %x", got, want)
	}

	t.Run("truncated tag", func(t *testing.T) {
		// Header claims 1000 body bytes (syncsafe 0x07 0x68), the part holds 20.
		truncated := append([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0x07, 0x68}, make([]byte, 20)...)

		_, err := ConcatMP3([][]byte{frameA, truncated})
		if !errors.Is(err, ErrFormatMismatch) {
			t.Fatalf("expected ErrFormatMismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), "segment 1") {
			t.Errorf("error should name the segment: %v", err)
		}
	})
}
