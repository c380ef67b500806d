// Package pocket synthesizes speech by running the local pocket-tts CLI.
package pocket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	pockettts "github.com/MeKo-Christian/go-call-pocket-tts"

	"github.com/example/narrator/internal/audio"
	"github.com/example/narrator/internal/tts"
)

const defaultExecutable = "pocket-tts"

type Options struct {
	ExecutablePath string
	ConfigPath     string
	Quiet          bool
	// VoicesManifest lists custom voice embeddings. Optional.
	VoicesManifest string
	// SpeakerWAV is a reference recording. When set, it is exported once to
	// a temporary voice embedding that replaces the default speaker.
	SpeakerWAV string
	// Format must be WAV: pocket-tts only writes WAV.
	Format audio.Format
	Logger *slog.Logger
}

// Synthesizer implements tts.Synthesizer and tts.SpeakerLister.
type Synthesizer struct {
	exe        string
	configPath string
	quiet      bool
	voices     *VoiceManager
	cloned     string
	tmpDir     string
	logger     *slog.Logger
}

type generateRequest struct {
	ExecutablePath string
	ConfigPath     string
	Voice          string
	Quiet          bool
	Text           string
}

// runGenerate and exportVoice are replaced in tests.
var (
	runGenerate = generateViaCLI
	exportVoice = pockettts.ExportVoice
)

func New(ctx context.Context, opts Options) (*Synthesizer, error) {
	if opts.Format != audio.FormatWAV {
		return nil, fmt.Errorf("%w: pocket-tts only produces WAV; use a .wav output path", tts.ErrConfiguration)
	}

	s := &Synthesizer{
		exe:        opts.ExecutablePath,
		configPath: opts.ConfigPath,
		quiet:      opts.Quiet,
		logger:     opts.Logger,
	}
	if s.exe == "" {
		s.exe = defaultExecutable
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if opts.VoicesManifest != "" {
		vm, err := NewVoiceManager(opts.VoicesManifest)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", tts.ErrConfiguration, err)
		}
		s.voices = vm
	}

	if opts.SpeakerWAV != "" {
		if err := s.cloneVoice(ctx, opts.SpeakerWAV); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Synthesizer) cloneVoice(ctx context.Context, wavPath string) error {
	if _, err := os.Stat(wavPath); err != nil {
		return fmt.Errorf("%w: speaker sample: %w", tts.ErrInput, err)
	}

	dir, err := os.MkdirTemp("", "narrator-voice-")
	if err != nil {
		return fmt.Errorf("%w: create voice dir: %w", tts.ErrIO, err)
	}
	s.tmpDir = dir
	out := filepath.Join(dir, "speaker.safetensors")

	started := time.Now()
	err = exportVoice(ctx, wavPath, out, &pockettts.ExportVoiceOptions{
		Config:         s.configPath,
		Quiet:          s.quiet,
		ExecutablePath: s.exe,
		LogWriter:      os.Stderr,
	})
	if err != nil {
		var notFound *pockettts.ErrExecutableNotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: voice cloning requires the pocket-tts CLI: %w", tts.ErrConfiguration, err)
		}
		return fmt.Errorf("export voice from %s: %w", wavPath, err)
	}

	s.cloned = out
	s.logger.Info("exported speaker voice", "sample", wavPath, "took", time.Since(started).String())
	return nil
}

// resolveVoice maps a speaker to the --voice argument. An empty speaker
// selects the cloned voice when there is one, otherwise the CLI default.
// Manifest ids resolve to their embedding file; anything else is passed
// through as a built-in name or path.
func (s *Synthesizer) resolveVoice(speaker string) (string, error) {
	if speaker == "" {
		return s.cloned, nil
	}
	if s.voices == nil {
		return speaker, nil
	}
	path, err := s.voices.Resolve(speaker)
	if errors.Is(err, ErrUnknownVoice) {
		return speaker, nil
	}
	if err != nil {
		return "", tts.Permanent(fmt.Errorf("%w: %w", tts.ErrConfiguration, err))
	}
	return path, nil
}

// Synthesize runs one pocket-tts generate. The voice language is ignored.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, v tts.Voice) (audio.Clip, error) {
	voice, err := s.resolveVoice(v.Speaker)
	if err != nil {
		return audio.Clip{}, err
	}

	data, err := runGenerate(ctx, generateRequest{
		ExecutablePath: s.exe,
		ConfigPath:     s.configPath,
		Voice:          voice,
		Quiet:          s.quiet,
		Text:           text,
	})
	if err != nil {
		return audio.Clip{}, mapGenerateError(s.exe, err)
	}

	return audio.Clip{Format: audio.FormatWAV, Data: data}, nil
}

// ListSpeakers returns the built-in voices and the manifest voices. pocket-tts
// voices are English, so a non-English language filter yields nothing.
func (s *Synthesizer) ListSpeakers(_ context.Context, language string) ([]tts.Speaker, error) {
	if language != "" && !strings.HasPrefix(strings.ToLower(language), "en") {
		return nil, nil
	}

	speakers := make([]tts.Speaker, 0, len(BuiltinVoices))
	for _, id := range BuiltinVoices {
		speakers = append(speakers, tts.Speaker{Name: id, Languages: []string{"en"}, Detail: "built-in"})
	}
	if s.voices != nil {
		for _, v := range s.voices.Voices() {
			detail := "manifest"
			if v.License != "" {
				detail += ", " + v.License
			}
			speakers = append(speakers, tts.Speaker{Name: v.ID, Languages: []string{"en"}, Detail: detail})
		}
	}
	return speakers, nil
}

// Close removes the exported speaker voice, if any. Safe to call twice.
func (s *Synthesizer) Close() error {
	if s.tmpDir == "" {
		return nil
	}
	dir := s.tmpDir
	s.tmpDir = ""
	s.cloned = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove voice dir: %w", err)
	}
	return nil
}

func generateViaCLI(ctx context.Context, req generateRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.Permanent(errors.New("pocket-tts: empty input text"))
	}

	cmd := exec.CommandContext(ctx, req.ExecutablePath, buildGenerateArgs(req)...)
	cmd.Stdin = strings.NewReader(req.Text)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out.Bytes(), nil
}

func buildGenerateArgs(req generateRequest) []string {
	args := []string{"generate", "--text", "-", "--output-path", "-"}
	if req.Voice != "" {
		args = append(args, "--voice", req.Voice)
	}
	if req.ConfigPath != "" {
		args = append(args, "--config", req.ConfigPath)
	}
	if req.Quiet {
		args = append(args, "--quiet")
	}
	return args
}

// mapGenerateError marks a missing executable as permanent.
func mapGenerateError(exe string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return tts.Permanent(fmt.Errorf(
			"%w: pocket-tts executable %q not found; install it with `pip install pocket-tts` or set --pocket-cli-path: %w",
			tts.ErrConfiguration, exe, err,
		))
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("pocket-tts exited with code %d: %w", exitErr.ExitCode(), err)
	}
	return err
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
