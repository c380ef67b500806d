package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for container formats the assembler cannot write.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format is an audio container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// FormatFromPath infers the container from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q (want .wav or .mp3)", ErrUnsupportedFormat, ext)
	}
}

// Clip is one encoded audio payload as returned by a synthesis backend.
type Clip struct {
	Format Format
	Data   []byte
}

// Segment is the synthesized audio of one chunk. Index matches the chunk index.
type Segment struct {
	Index int
	Clip  Clip
}

// PCM holds interleaved float32 samples in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames (samples per channel).
func (p PCM) Frames() int {
	if p.Channels < 1 {
		return 0
	}
	return len(p.Samples) / p.Channels
}
