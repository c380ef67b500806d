package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/faiface/beep/mp3"
)

// DecodeMP3 decodes MP3 bytes into interleaved float32 PCM.
func DecodeMP3(data []byte) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("empty MP3 input")
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return PCM{}, fmt.Errorf("decode MP3: %w", err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}

	out := PCM{SampleRate: int(format.SampleRate), Channels: channels}
	frames := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(frames)
		out.Samples = appendFrames(out.Samples, frames[:n], channels)
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return PCM{}, fmt.Errorf("stream MP3: %w", err)
	}

	return out, nil
}

// ConcatMP3 joins MP3 streams frame-wise. ID3v2 headers and ID3v1 trailers
// are dropped from every part so tags never land mid-stream. A part whose
// ID3v2 tag runs past its end is rejected with ErrFormatMismatch.
func ConcatMP3(parts [][]byte) ([]byte, error) {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for i, p := range parts {
		frames, err := stripID3(p)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %w", ErrFormatMismatch, i, err)
		}
		out = append(out, frames...)
	}
	return out, nil
}

const id3v1Size = 128

var errTruncatedID3 = errors.New("truncated ID3v2 tag")

func stripID3(b []byte) ([]byte, error) {
	// ID3v2: "ID3", version(2), flags(1), syncsafe size(4), optional footer.
	for len(b) >= 10 && string(b[:3]) == "ID3" {
		size := int(b[6]&0x7f)<<21 | int(b[7]&0x7f)<<14 | int(b[8]&0x7f)<<7 | int(b[9]&0x7f)
		end := 10 + size
		if b[5]&0x10 != 0 {
			end += 10
		}
		if end > len(b) {
			return nil, errTruncatedID3
		}
		b = b[end:]
	}
	if len(b) >= id3v1Size && string(b[len(b)-id3v1Size:len(b)-id3v1Size+3]) == "TAG" {
		b = b[:len(b)-id3v1Size]
	}
	return b, nil
}
