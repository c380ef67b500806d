package audio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays an encoded track on the default output device.
type Player interface {
	Play(ctx context.Context, format Format, r io.ReadCloser) error
}

// SpeakerPlayer plays through beep's speaker package.
type SpeakerPlayer struct{}

// Play blocks until playback finishes or ctx is cancelled.
func (SpeakerPlayer) Play(ctx context.Context, format Format, r io.ReadCloser) error {
	var (
		streamer beep.StreamSeekCloser
		bf       beep.Format
		err      error
	)
	switch format {
	case FormatWAV:
		streamer, bf, err = wav.Decode(r)
	case FormatMP3:
		streamer, bf, err = mp3.Decode(r)
	default:
		_ = r.Close()
		return fmt.Errorf("%w: cannot play %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		_ = r.Close()
		return fmt.Errorf("decode for playback: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(bf.SampleRate, bf.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
