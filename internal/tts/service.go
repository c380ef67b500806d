package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/example/narrator/internal/audio"
	"github.com/example/narrator/internal/text"
)

const defaultRetryBackoff = 500 * time.Millisecond

// Assembler joins spooled segments into the final track.
type Assembler interface {
	Assemble(ctx context.Context, segs []audio.Segment, path string) (int64, error)
}

// Request describes one narration run.
type Request struct {
	Text      string
	Chunk     text.ChunkOptions
	ASCIIOnly bool
	Plan      VoicePlan
	Output    string
}

// Result summarizes a completed run.
type Result struct {
	Output string
	Chunks int
	Bytes  int64
}

// Task is one chunk paired with the voice that speaks it.
type Task struct {
	Chunk text.Chunk
	Voice Voice
}

// Progress is reported after each chunk is synthesized.
type Progress struct {
	Done  int
	Total int
	Task  Task
}

// Service drives normalize → split → synthesize → assemble.
type Service struct {
	synth       Synthesizer
	logger      *slog.Logger
	concurrency int
	retries     int
	backoff     time.Duration
	progress    func(Progress)
	fs          afero.Fs
	assembler   Assembler
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrency bounds how many chunks are synthesized at once. Values
// below 2 keep the default strictly sequential dispatch.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = max(n, 1) }
}

// WithRetry retries a failed chunk up to n times with exponential backoff
// starting at base. Errors marked with Permanent are not retried.
func WithRetry(n int, base time.Duration) Option {
	return func(s *Service) {
		s.retries = max(n, 0)
		if base > 0 {
			s.backoff = base
		}
	}
}

// WithProgress registers a callback invoked once per synthesized chunk.
// Calls are serialized.
func WithProgress(fn func(Progress)) Option {
	return func(s *Service) { s.progress = fn }
}

// WithFs sets the filesystem used for the segment spool and, unless
// WithAssembler is given, for the output track.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) {
		if fs != nil {
			s.fs = fs
		}
	}
}

func WithAssembler(a Assembler) Option {
	return func(s *Service) { s.assembler = a }
}

func NewService(synth Synthesizer, opts ...Option) *Service {
	s := &Service{
		synth:       synth,
		logger:      slog.Default(),
		concurrency: 1,
		backoff:     defaultRetryBackoff,
		fs:          afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.assembler == nil {
		s.assembler = audio.NewAssembler(s.fs)
	}
	return s
}

// Plan normalizes and chunks req.Text and assigns a voice to every chunk.
// It performs no synthesis.
func (s *Service) Plan(req Request) ([]Task, error) {
	if req.Chunk.MaxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars %d must be positive", ErrConfiguration, req.Chunk.MaxChars)
	}

	normalized := text.Normalize(req.Text)
	if req.ASCIIOnly {
		normalized = text.FoldASCII(normalized)
	}

	chunks, err := text.Split(normalized, req.Chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}

	tasks := make([]Task, len(chunks))
	for i, c := range chunks {
		tasks[i] = Task{Chunk: c, Voice: req.Plan.For(c.Index)}
	}
	return tasks, nil
}

// Narrate runs the whole pipeline and writes the track to req.Output. Any
// chunk failure aborts the run: no further chunks are dispatched and nothing
// is written to req.Output. Spooled segments are removed on every path.
func (s *Service) Narrate(ctx context.Context, req Request) (Result, error) {
	if s.synth == nil {
		return Result{}, fmt.Errorf("%w: no synthesizer configured", ErrConfiguration)
	}
	if req.Output == "" {
		return Result{}, fmt.Errorf("%w: output path is required", ErrConfiguration)
	}
	if _, err := audio.FormatFromPath(req.Output); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	tasks, err := s.Plan(req)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	s.logger.Info("narration started",
		"chunks", len(tasks),
		"output", req.Output,
		"concurrency", s.concurrency,
		"alternating", req.Plan.Alternates(),
	)

	spool, err := audio.NewSpool(s.fs)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := spool.Close(); cerr != nil {
			s.logger.Warn("segment spool cleanup failed", "dir", spool.Dir(), "error", cerr)
		}
	}()

	if err := s.dispatch(ctx, tasks, spool); err != nil {
		return Result{}, err
	}

	segs, err := spool.Segments()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	n, err := s.assembler.Assemble(ctx, segs, req.Output)
	if err != nil {
		if errors.Is(err, audio.ErrNoSegments) {
			return Result{}, fmt.Errorf("%w: %w", ErrEmptyInput, err)
		}
		if errors.Is(err, audio.ErrFormatMismatch) {
			return Result{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return Result{}, fmt.Errorf("%w: assemble %s: %w", ErrIO, req.Output, err)
	}

	s.logger.Info("narration complete",
		"chunks", len(tasks),
		"output", req.Output,
		"bytes", n,
		"elapsed", time.Since(start),
	)

	return Result{Output: req.Output, Chunks: len(tasks), Bytes: n}, nil
}

func (s *Service) dispatch(ctx context.Context, tasks []Task, spool *audio.Spool) error {
	tracker := &progressTracker{total: len(tasks), fn: s.progress}

	if s.concurrency <= 1 {
		for _, t := range tasks {
			if err := s.runTask(ctx, t, spool, tracker); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, t := range tasks {
		g.Go(func() error {
			return s.runTask(gctx, t, spool, tracker)
		})
	}
	return g.Wait()
}

func (s *Service) runTask(ctx context.Context, t Task, spool *audio.Spool, tracker *progressTracker) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("narration cancelled before chunk %d: %w", t.Chunk.Index, err)
	}

	s.logger.Debug("synthesizing chunk",
		"index", t.Chunk.Index,
		"voice", t.Voice.String(),
		"chars", len([]rune(t.Chunk.Text)),
	)

	clip, err := s.synthesize(ctx, t)
	if err != nil {
		return &SynthesisError{Index: t.Chunk.Index, Voice: t.Voice, Err: err}
	}
	if len(clip.Data) == 0 {
		return &SynthesisError{Index: t.Chunk.Index, Voice: t.Voice, Err: errors.New("backend returned no audio")}
	}

	if err := spool.Put(audio.Segment{Index: t.Chunk.Index, Clip: clip}); err != nil {
		return fmt.Errorf("%w: spool chunk %d: %w", ErrIO, t.Chunk.Index, err)
	}

	tracker.advance(t)
	return nil
}

func (s *Service) synthesize(ctx context.Context, t Task) (audio.Clip, error) {
	if s.retries == 0 {
		return s.synth.Synthesize(ctx, t.Chunk.Text, t.Voice)
	}

	var clip audio.Clip
	backoff := retry.WithMaxRetries(uint64(s.retries), retry.NewExponential(s.backoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := s.synth.Synthesize(ctx, t.Chunk.Text, t.Voice)
		if err == nil {
			clip = c
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("chunk synthesis failed, retrying",
			"index", t.Chunk.Index,
			"attempt", attempt,
			"error", err,
		)
		return retry.RetryableError(err)
	})
	return clip, err
}

type progressTracker struct {
	mu    sync.Mutex
	done  int
	total int
	fn    func(Progress)
}

func (p *progressTracker) advance(t Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.fn != nil {
		p.fn(Progress{Done: p.done, Total: p.total, Task: t})
	}
}
