package audio

import (
	"fmt"

	"github.com/faiface/beep"
)

// resampleQuality is the beep interpolation quality (1 = linear, up to 64).
const resampleQuality = 4

// Conform converts p to the given rate and channel count.
func Conform(p PCM, sampleRate, channels int) (PCM, error) {
	if sampleRate < 1 || channels < 1 || channels > 2 {
		return PCM{}, fmt.Errorf("%w: cannot conform to %d Hz / %d channels", ErrFormatMismatch, sampleRate, channels)
	}
	if p.Channels < 1 || p.Channels > 2 {
		return PCM{}, fmt.Errorf("%w: unsupported channel count %d", ErrFormatMismatch, p.Channels)
	}
	if p.SampleRate == sampleRate && p.Channels == channels {
		return p, nil
	}

	var s beep.Streamer = &pcmStreamer{pcm: p}
	if p.SampleRate != sampleRate {
		s = beep.Resample(resampleQuality, beep.SampleRate(p.SampleRate), beep.SampleRate(sampleRate), s)
	}

	out := PCM{SampleRate: sampleRate, Channels: channels}
	frames := make([][2]float64, 1024)
	for {
		n, ok := s.Stream(frames)
		out.Samples = appendFrames(out.Samples, frames[:n], channels)
		if !ok {
			break
		}
	}
	return out, nil
}

// pcmStreamer adapts interleaved PCM to beep's stereo frame streams.
type pcmStreamer struct {
	pcm PCM
	pos int // frame position
}

func (s *pcmStreamer) Stream(frames [][2]float64) (int, bool) {
	total := s.pcm.Frames()
	if s.pos >= total {
		return 0, false
	}
	n := 0
	for n < len(frames) && s.pos < total {
		base := s.pos * s.pcm.Channels
		left := float64(s.pcm.Samples[base])
		right := left
		if s.pcm.Channels == 2 {
			right = float64(s.pcm.Samples[base+1])
		}
		frames[n] = [2]float64{left, right}
		n++
		s.pos++
	}
	return n, true
}

func (s *pcmStreamer) Err() error { return nil }

// appendFrames appends beep stereo frames as interleaved samples; mono output
// averages both sides.
func appendFrames(dst []float32, frames [][2]float64, channels int) []float32 {
	for _, f := range frames {
		if channels == 1 {
			dst = append(dst, float32((f[0]+f[1])/2))
			continue
		}
		dst = append(dst, float32(f[0]), float32(f[1]))
	}
	return dst
}
