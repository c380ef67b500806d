package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// OutputBitDepth is the sample size of every WAV the assembler writes.
const OutputBitDepth = 16

// EncodeWAV encodes PCM as a 16-bit PCM WAV byte slice.
func EncodeWAV(p PCM) ([]byte, error) {
	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	if err := WriteWAV(&seekBuffer{buf: &buf}, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAV encodes PCM as a 16-bit PCM WAV into ws. The encoder seeks back to
// patch the header sizes on close.
func WriteWAV(ws io.WriteSeeker, p PCM) error {
	if p.SampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", p.SampleRate)
	}
	if p.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", p.Channels)
	}

	enc := wav.NewEncoder(ws, p.SampleRate, OutputBitDepth, p.Channels, 1) // 1 = PCM

	pcmBuf := &goaudio.Float32Buffer{
		Data:           p.Samples,
		Format:         &goaudio.Format{SampleRate: p.SampleRate, NumChannels: p.Channels},
		SourceBitDepth: OutputBitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing encoder: %w", err)
	}
	return nil
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	// Writing in the middle: overwrite existing bytes, extend for the rest.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
	}
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = s.pos + int(offset)
	case io.SeekEnd:
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	if newPos > s.buf.Len() {
		return 0, fmt.Errorf("seek past end")
	}
	s.pos = newPos
	return int64(newPos), nil
}
