package tts

import (
	"errors"
	"fmt"
)

// Error categories returned by the narration pipeline. Test with errors.Is.
var (
	// ErrInput reports missing or unreadable input text.
	ErrInput = errors.New("input error")
	// ErrConfiguration reports an invalid option or an unsupported combination.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptyInput reports that no speakable text survived normalization.
	ErrEmptyInput = errors.New("no speakable text after normalization")
	// ErrSynthesis is matched by every *SynthesisError.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrIO reports a failure writing segments or the final track.
	ErrIO = errors.New("i/o error")
)

// SynthesisError is a backend failure for one chunk. It aborts the run.
type SynthesisError struct {
	Index int
	Voice Voice
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("chunk %d synthesis failed (%s): %v", e.Index, e.Voice, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func (e *SynthesisError) Is(target error) bool { return target == ErrSynthesis }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. a request the backend
// rejected as malformed. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
