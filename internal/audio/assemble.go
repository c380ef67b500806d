package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ErrNoSegments is returned when there is nothing to assemble.
var ErrNoSegments = errors.New("no audio segments to assemble")

// Assembler concatenates ordered segments into one output track.
type Assembler struct {
	fs afero.Fs
}

// NewAssembler returns an Assembler writing to fs. A nil fs uses the OS filesystem.
func NewAssembler(fs afero.Fs) *Assembler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Assembler{fs: fs}
}

// Assemble writes segments to path in index order and returns the number of
// bytes written. Indices must be gapless from 0. The container follows the
// path extension: WAV output decodes every segment and re-encodes once at the
// first segment's rate and channel count; MP3 output requires MP3 segments and
// joins their frames without re-encoding. No silence is inserted.
//
// The track is written to a temporary sibling and renamed into place, so a
// failed run never leaves a partial file at path.
func (a *Assembler) Assemble(ctx context.Context, segs []Segment, path string) (int64, error) {
	if len(segs) == 0 {
		return 0, ErrNoSegments
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return 0, err
	}

	ordered, err := orderSegments(segs)
	if err != nil {
		return 0, err
	}

	var write func(w io.WriteSeeker) error
	switch format {
	case FormatWAV:
		pcm, err := mergePCM(ctx, ordered)
		if err != nil {
			return 0, err
		}
		write = func(w io.WriteSeeker) error { return WriteWAV(w, pcm) }
	case FormatMP3:
		parts := make([][]byte, len(ordered))
		for i, seg := range ordered {
			if seg.Clip.Format != FormatMP3 {
				return 0, fmt.Errorf("%w: segment %d is %s, MP3 output needs MP3 segments", ErrFormatMismatch, seg.Index, seg.Clip.Format)
			}
			parts[i] = seg.Clip.Data
		}
		data, err := ConcatMP3(parts)
		if err != nil {
			return 0, err
		}
		write = func(w io.WriteSeeker) error {
			_, err := w.Write(data)
			return err
		}
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return a.writeAtomic(path, write)
}

func (a *Assembler) writeAtomic(path string, write func(w io.WriteSeeker) error) (n int64, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(a.fs, dir, base+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create output temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = a.fs.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("close output: %w", err)
	}
	if err = a.fs.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("move output into place: %w", err)
	}
	return info.Size(), nil
}

// orderSegments sorts a copy by index and checks the indices are 0..n-1.
func orderSegments(segs []Segment) ([]Segment, error) {
	ordered := append([]Segment(nil), segs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for i, seg := range ordered {
		if seg.Index != i {
			return nil, fmt.Errorf("segment indices not contiguous: position %d holds index %d", i, seg.Index)
		}
	}
	return ordered, nil
}

func mergePCM(ctx context.Context, ordered []Segment) (PCM, error) {
	var merged PCM
	for i, seg := range ordered {
		if err := ctx.Err(); err != nil {
			return PCM{}, err
		}
		pcm, err := Decode(seg.Clip)
		if err != nil {
			return PCM{}, fmt.Errorf("decode segment %d: %w", seg.Index, err)
		}
		if i == 0 {
			merged = PCM{SampleRate: pcm.SampleRate, Channels: pcm.Channels}
		}
		pcm, err = Conform(pcm, merged.SampleRate, merged.Channels)
		if err != nil {
			return PCM{}, fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		merged.Samples = append(merged.Samples, pcm.Samples...)
	}
	return merged, nil
}
