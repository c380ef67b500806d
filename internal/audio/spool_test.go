package audio

import (
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

func TestSpool_PutAndSegmentsOrdered(t *testing.T) {
	fs := afero.NewMemMapFs()
	sp, err := NewSpool(fs)
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	defer sp.Close()

	for _, idx := range []int{2, 0, 1} {
		seg := Segment{Index: idx, Clip: Clip{Format: FormatMP3, Data: []byte{byte(idx)}}}
		if err := sp.Put(seg); err != nil {
			t.Fatalf("Put(%d): %v", idx, err)
		}
	}

	segs, err := sp.Segments()
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	for i, seg := range segs {
		if seg.Index != i || seg.Clip.Data[0] != byte(i) || seg.Clip.Format != FormatMP3 {
			t.Errorf("segment %d = %+v", i, seg)
		}
	}
}

func TestSpool_RejectsDuplicateIndex(t *testing.T) {
	sp, err := NewSpool(afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	defer sp.Close()

	seg := Segment{Index: 0, Clip: Clip{Format: FormatWAV, Data: []byte{1}}}
	if err := sp.Put(seg); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := sp.Put(seg); err == nil {
		t.Fatal("expected error for duplicate index")
	}
}

func TestSpool_CloseRemovesFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	sp, err := NewSpool(fs)
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	if err := sp.Put(Segment{Index: 0, Clip: Clip{Format: FormatWAV, Data: []byte{1}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := sp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if exists, _ := afero.DirExists(fs, sp.Dir()); exists {
		t.Error("spool dir still exists after Close")
	}
	if err := sp.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sp.Put(Segment{Index: 1}); !errors.Is(err, ErrSpoolClosed) {
		t.Errorf("Put after Close: expected ErrSpoolClosed, got %v", err)
	}
	if _, err := sp.Segments(); !errors.Is(err, ErrSpoolClosed) {
		t.Errorf("Segments after Close: expected ErrSpoolClosed, got %v", err)
	}
}

func TestSpool_ConcurrentPut(t *testing.T) {
	sp, err := NewSpool(afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	defer sp.Close()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sp.Put(Segment{Index: i, Clip: Clip{Format: FormatWAV, Data: []byte{byte(i)}}}); err != nil {
				t.Errorf("Put(%d): %v", i, err)
			}
		}()
	}
	wg.Wait()

	if sp.Len() != 32 {
		t.Fatalf("Len = %d, want 32", sp.Len())
	}
}
