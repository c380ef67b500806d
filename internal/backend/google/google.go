// Package google synthesizes speech with Google Cloud Text-to-Speech.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/narrator/internal/audio"
	"github.com/example/narrator/internal/tts"
)

// linear16Rate is requested for WAV output so every segment shares one rate.
const linear16Rate = 24000

// ErrNoAudio is returned when the service answers without audio content.
var ErrNoAudio = errors.New("google tts returned no audio")

type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *ttspb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*ttspb.SynthesizeSpeechResponse, error)
	ListVoices(ctx context.Context, req *ttspb.ListVoicesRequest, opts ...gax.CallOption) (*ttspb.ListVoicesResponse, error)
	Close() error
}

type Options struct {
	// CredentialsFile is a service account JSON key. Application Default
	// Credentials are used when empty.
	CredentialsFile string
	Endpoint        string
	// Timeout bounds each request. Zero means no extra deadline.
	Timeout time.Duration
	// Format is the container requested from the service: MP3 or WAV.
	Format audio.Format
	Logger *slog.Logger
}

// Synthesizer implements tts.Synthesizer and tts.SpeakerLister.
type Synthesizer struct {
	client  speechClient
	format  audio.Format
	timeout time.Duration
	logger  *slog.Logger
}

// newClient is replaced in tests.
var newClient = func(ctx context.Context, opts ...option.ClientOption) (speechClient, error) {
	return gctts.NewClient(ctx, opts...)
}

func New(ctx context.Context, opts Options) (*Synthesizer, error) {
	if opts.Format != audio.FormatMP3 && opts.Format != audio.FormatWAV {
		return nil, fmt.Errorf("%w: google backend cannot produce %s", tts.ErrConfiguration, opts.Format)
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := newClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create google tts client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Synthesizer{
		client:  client,
		format:  opts.Format,
		timeout: opts.Timeout,
		logger:  logger,
	}, nil
}

// Synthesize sends one chunk. The voice language is required by the service;
// an empty speaker lets it pick a default voice for the language.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, v tts.Voice) (audio.Clip, error) {
	if v.Language == "" {
		return audio.Clip{}, tts.Permanent(fmt.Errorf("%w: google tts needs a language code", tts.ErrConfiguration))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: text}},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: v.Language,
			Name:         v.Speaker,
		},
		AudioConfig: s.audioConfig(),
	}

	started := time.Now()
	resp, err := s.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return audio.Clip{}, classify(err)
	}

	content := resp.GetAudioContent()
	if len(content) == 0 {
		return audio.Clip{}, ErrNoAudio
	}

	s.logger.Debug("google tts synthesize completed",
		"language", v.Language,
		"voice", v.Speaker,
		"bytes", len(content),
		"took", time.Since(started).String(),
	)

	return audio.Clip{Format: s.format, Data: content}, nil
}

func (s *Synthesizer) audioConfig() *ttspb.AudioConfig {
	if s.format == audio.FormatWAV {
		return &ttspb.AudioConfig{
			AudioEncoding:   ttspb.AudioEncoding_LINEAR16,
			SampleRateHertz: linear16Rate,
		}
	}
	return &ttspb.AudioConfig{AudioEncoding: ttspb.AudioEncoding_MP3}
}

// ListSpeakers returns the service's voices, optionally filtered by language.
func (s *Synthesizer) ListSpeakers(ctx context.Context, language string) ([]tts.Speaker, error) {
	resp, err := s.client.ListVoices(ctx, &ttspb.ListVoicesRequest{LanguageCode: language})
	if err != nil {
		return nil, fmt.Errorf("list google voices: %w", err)
	}

	speakers := make([]tts.Speaker, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		speakers = append(speakers, tts.Speaker{
			Name:      v.GetName(),
			Languages: v.GetLanguageCodes(),
			Detail:    fmt.Sprintf("%s, %d Hz", strings.ToLower(v.GetSsmlGender().String()), v.GetNaturalSampleRateHertz()),
		})
	}
	sort.Slice(speakers, func(i, j int) bool { return speakers[i].Name < speakers[j].Name })

	return speakers, nil
}

func (s *Synthesizer) Close() error {
	return s.client.Close()
}

// classify marks errors that another attempt cannot fix as permanent.
func classify(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound:
		return tts.Permanent(err)
	default:
		return err
	}
}
