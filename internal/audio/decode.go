package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when audio cannot be combined into the requested container.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Decode converts an encoded clip to PCM.
func Decode(c Clip) (PCM, error) {
	switch c.Format {
	case FormatWAV:
		return DecodeWAV(c.Data)
	case FormatMP3:
		return DecodeMP3(c.Data)
	default:
		return PCM{}, fmt.Errorf("%w: cannot decode %s clip", ErrUnsupportedFormat, c.Format)
	}
}

// DecodeWAV decodes WAV bytes into interleaved float32 PCM.
func DecodeWAV(data []byte) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return PCM{}, errors.New("invalid WAV file")
	}
	if dec.NumChans < 1 {
		return PCM{}, fmt.Errorf("%w: WAV has %d channels", ErrFormatMismatch, dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return PCM{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    buf.Data,
	}, nil
}
