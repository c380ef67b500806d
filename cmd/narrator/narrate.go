package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/narrator/internal/audio"
	"github.com/example/narrator/internal/backend/google"
	"github.com/example/narrator/internal/backend/pocket"
	"github.com/example/narrator/internal/config"
	"github.com/example/narrator/internal/tts"
)

type narrateOptions struct {
	Text         string
	File         string
	ListSpeakers bool
}

// newSynthesizer and player are replaced in tests.
var (
	newSynthesizer = buildSynthesizer
	player         audio.Player = audio.SpeakerPlayer{}
)

func newNarrateCmd(a *app) *cobra.Command {
	var opts narrateOptions

	cmd := &cobra.Command{
		Use:   "narrate",
		Short: "Synthesize Markdown text into one audio track",
		Long: "Normalizes Markdown, splits it into chunks that fit the backend's input limit,\n" +
			"synthesizes each chunk and joins the audio in order. Text comes from --text,\n" +
			"--file or stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.narrate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "Text to narrate")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Markdown or text file to narrate")
	cmd.Flags().BoolVar(&opts.ListSpeakers, "list-speakers", false, "List the speakers of the selected preset and exit")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func (a *app) narrate(ctx context.Context, opts narrateOptions) error {
	cfg := a.cfg

	preset, err := resolvePreset(cfg.Voice)
	if err != nil {
		return err
	}

	if opts.ListSpeakers {
		return a.listSpeakers(ctx, preset)
	}

	chunkOpts, err := preset.Resolve(cfg.Chunk)
	if err != nil {
		return err
	}

	input, err := readInput(opts.Text, opts.File, a.stdin)
	if err != nil {
		return err
	}

	out := cfg.Output.Path
	if out == "" {
		out = preset.Output
	}
	format, err := audio.FormatFromPath(out)
	if err != nil {
		return fmt.Errorf("%w: %w", tts.ErrConfiguration, err)
	}

	// A cloned voice replaces the preset's default speaker.
	speaker := cfg.Voice.Speaker
	if speaker == "" && cfg.Voice.SpeakerWAV == "" {
		speaker = preset.Speaker
	}

	a.console.Banner()

	synth, err := newSynthesizer(ctx, preset.Backend, cfg, format)
	if err != nil {
		return err
	}
	defer func() {
		if err := synth.Close(); err != nil {
			slog.Warn("close synthesizer", "error", err)
		}
	}()

	svc := tts.NewService(synth,
		tts.WithLogger(slog.Default()),
		tts.WithConcurrency(cfg.Synth.Concurrency),
		tts.WithRetry(cfg.Synth.Retries, cfg.Synth.RetryBackoff),
		tts.WithProgress(func(p tts.Progress) {
			a.console.Progress(p.Done, p.Total, p.Task.Voice.String())
		}),
	)

	res, err := svc.Narrate(ctx, tts.Request{
		Text:      input,
		Chunk:     chunkOpts,
		ASCIIOnly: preset.ASCIIOnly,
		Plan:      tts.NewVoicePlan(cfg.Voice.Lang1, cfg.Voice.Lang2, speaker, cfg.Voice.Speaker2),
		Output:    out,
	})
	if err != nil {
		return err
	}

	a.console.Success("wrote %s (%d chunks, %d bytes)", res.Output, res.Chunks, res.Bytes)

	if !cfg.Output.NoPlay {
		if err := play(ctx, res.Output, format); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("playback failed", "path", res.Output, "error", err)
			a.console.Info("playback unavailable: %v", err)
		}
	}

	a.console.Tips(programName)
	return nil
}

func (a *app) listSpeakers(ctx context.Context, preset tts.Preset) error {
	cfg := a.cfg
	// Listing never needs the cloned voice.
	cfg.Voice.SpeakerWAV = ""

	format, err := audio.FormatFromPath(preset.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", tts.ErrConfiguration, err)
	}

	synth, err := newSynthesizer(ctx, preset.Backend, cfg, format)
	if err != nil {
		return err
	}
	defer func() {
		if err := synth.Close(); err != nil {
			slog.Warn("close synthesizer", "error", err)
		}
	}()

	lister, ok := synth.(tts.SpeakerLister)
	if !ok {
		return fmt.Errorf("%w: backend %s cannot list speakers", tts.ErrConfiguration, preset.Backend)
	}

	speakers, err := lister.ListSpeakers(ctx, cfg.Voice.Lang1)
	if err != nil {
		return fmt.Errorf("list speakers: %w", err)
	}

	rows := make([][2]string, 0, len(speakers))
	for _, s := range speakers {
		detail := strings.Join(s.Languages, ",")
		if s.Detail != "" {
			detail += "  " + s.Detail
		}
		rows = append(rows, [2]string{s.Name, detail})
	}
	a.console.Speakers(rows)
	return nil
}

// resolvePreset looks up the voice preset and applies the backend override.
// An overridden backend also brings its own default output container.
func resolvePreset(v config.VoiceConfig) (tts.Preset, error) {
	preset, err := tts.LookupPreset(v.Preset)
	if err != nil {
		return tts.Preset{}, err
	}
	if strings.TrimSpace(v.Backend) == "" {
		return preset, nil
	}
	backend, err := config.NormalizeBackend(v.Backend)
	if err != nil {
		return tts.Preset{}, fmt.Errorf("%w: %w", tts.ErrConfiguration, err)
	}
	if backend != preset.Backend {
		for _, p := range tts.Presets {
			if p.Backend == backend {
				preset.Output = p.Output
			}
		}
		preset.Backend = backend
	}
	return preset, nil
}

// buildSynthesizer constructs the backend named by the preset. It is the
// only place that switches on the backend.
func buildSynthesizer(ctx context.Context, backend config.Backend, cfg config.Config, format audio.Format) (tts.Synthesizer, error) {
	switch backend {
	case config.BackendGoogle:
		s, err := google.New(ctx, google.Options{
			CredentialsFile: cfg.Google.CredentialsFile,
			Endpoint:        cfg.Google.Endpoint,
			Timeout:         cfg.Google.Timeout,
			Format:          format,
			Logger:          slog.Default(),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPocket:
		s, err := pocket.New(ctx, pocket.Options{
			ExecutablePath: cfg.Pocket.CLIPath,
			ConfigPath:     cfg.Pocket.CLIConfigPath,
			Quiet:          cfg.Pocket.Quiet,
			VoicesManifest: cfg.Pocket.VoicesManifest,
			SpeakerWAV:     cfg.Voice.SpeakerWAV,
			Format:         format,
			Logger:         slog.Default(),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend %q", tts.ErrConfiguration, backend)
	}
}

// readInput returns --text, the contents of --file, or stdin, in that order.
func readInput(text, file string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %w", tts.ErrInput, file, err)
		}
		return string(b), nil
	}

	if stdin == nil {
		return "", fmt.Errorf("%w: provide --text, --file or pipe text on stdin", tts.ErrInput)
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("%w: read stdin: %w", tts.ErrInput, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", fmt.Errorf("%w: provide --text, --file or pipe text on stdin", tts.ErrInput)
	}
	return string(b), nil
}

func play(ctx context.Context, path string, format audio.Format) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open track: %w", err)
	}
	return player.Play(ctx, format, f)
}
