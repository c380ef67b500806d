package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// ErrSpoolClosed is returned when a closed spool is used.
var ErrSpoolClosed = errors.New("segment spool is closed")

// Spool keeps synthesized segments in a private temporary directory until
// they are assembled. Close removes the directory and must run on every exit
// path, including aborted runs.
type Spool struct {
	fs  afero.Fs
	dir string

	mu      sync.Mutex
	entries map[int]spoolEntry
	closed  bool
}

type spoolEntry struct {
	path   string
	format Format
}

// NewSpool creates a spool directory on fs. A nil fs uses the OS filesystem.
func NewSpool(fs afero.Fs) (*Spool, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir, err := afero.TempDir(fs, "", "narrator-spool-")
	if err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{fs: fs, dir: dir, entries: make(map[int]spoolEntry)}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string { return s.dir }

// Put stores one segment. Each index may be stored once. Safe for concurrent use.
func (s *Spool) Put(seg Segment) error {
	if seg.Index < 0 {
		return fmt.Errorf("invalid segment index %d", seg.Index)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%06d.%s", seg.Index, seg.Clip.Format))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSpoolClosed
	}
	if _, dup := s.entries[seg.Index]; dup {
		return fmt.Errorf("segment %d already spooled", seg.Index)
	}
	if err := afero.WriteFile(s.fs, path, seg.Clip.Data, 0o600); err != nil {
		return fmt.Errorf("spool segment %d: %w", seg.Index, err)
	}
	s.entries[seg.Index] = spoolEntry{path: path, format: seg.Clip.Format}
	return nil
}

// Len returns the number of stored segments.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Segments reads back every stored segment ordered by index.
func (s *Spool) Segments() ([]Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSpoolClosed
	}

	indices := make([]int, 0, len(s.entries))
	for idx := range s.entries {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	segs := make([]Segment, 0, len(indices))
	for _, idx := range indices {
		e := s.entries[idx]
		data, err := afero.ReadFile(s.fs, e.path)
		if err != nil {
			return nil, fmt.Errorf("read spooled segment %d: %w", idx, err)
		}
		segs = append(segs, Segment{Index: idx, Clip: Clip{Format: e.format, Data: data}})
	}
	return segs, nil
}

// Close removes the spool directory. Calling it more than once is a no-op.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove spool dir: %w", err)
	}
	return nil
}
