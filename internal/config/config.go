package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Voice    VoiceConfig  `mapstructure:"voice"`
	Chunk    ChunkConfig  `mapstructure:"chunk"`
	Synth    SynthConfig  `mapstructure:"synth"`
	Output   OutputConfig `mapstructure:"output"`
	Google   GoogleConfig `mapstructure:"google"`
	Pocket   PocketConfig `mapstructure:"pocket"`
}

type VoiceConfig struct {
	Preset     string `mapstructure:"preset"`
	// Backend overrides the preset's backend when set.
	Backend    string `mapstructure:"backend"`
	Lang1      string `mapstructure:"lang1"`
	Lang2      string `mapstructure:"lang2"`
	Speaker    string `mapstructure:"speaker"`
	Speaker2   string `mapstructure:"speaker2"`
	SpeakerWAV string `mapstructure:"speaker_wav"`
}

// ChunkConfig overrides the preset's chunking. Zero values and an empty
// granularity mean "use the preset default".
type ChunkConfig struct {
	MaxChars     int    `mapstructure:"max_chars"`
	Granularity  string `mapstructure:"granularity"`
	MinUnitChars int    `mapstructure:"min_unit_chars"`
}

type SynthConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	Retries      int           `mapstructure:"retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type OutputConfig struct {
	Path     string `mapstructure:"path"`
	NoPlay   bool   `mapstructure:"no_play"`
	NoBanner bool   `mapstructure:"no_banner"`
}

type GoogleConfig struct {
	CredentialsFile string        `mapstructure:"credentials_file"`
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type PocketConfig struct {
	CLIPath        string `mapstructure:"cli_path"`
	CLIConfigPath  string `mapstructure:"cli_config_path"`
	VoicesManifest string `mapstructure:"voices_manifest"`
	Quiet          bool   `mapstructure:"quiet"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	EnvFile    string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Voice: VoiceConfig{
			Preset: "google",
			Lang1:  "en-US",
		},
		Chunk: ChunkConfig{},
		Synth: SynthConfig{
			Concurrency:  1,
			Retries:      0,
			RetryBackoff: 500 * time.Millisecond,
		},
		Output: OutputConfig{},
		Google: GoogleConfig{
			Timeout: 30 * time.Second,
		},
		Pocket: PocketConfig{
			CLIPath: "pocket-tts",
			Quiet:   true,
		},
	}
}

// flagKeys maps each command-line flag to its nested config key.
var flagKeys = map[string]string{
	"log-level":              "log_level",
	"voice":                  "voice.preset",
	"backend":                "voice.backend",
	"lang1":                  "voice.lang1",
	"lang2":                  "voice.lang2",
	"speaker":                "voice.speaker",
	"speaker2":               "voice.speaker2",
	"speaker-wav":            "voice.speaker_wav",
	"max-chars":              "chunk.max_chars",
	"granularity":            "chunk.granularity",
	"min-unit-chars":         "chunk.min_unit_chars",
	"concurrency":            "synth.concurrency",
	"retries":                "synth.retries",
	"retry-backoff":          "synth.retry_backoff",
	"out":                    "output.path",
	"no-play":                "output.no_play",
	"no-banner":              "output.no_banner",
	"google-credentials":     "google.credentials_file",
	"google-endpoint":        "google.endpoint",
	"google-timeout":         "google.timeout",
	"pocket-cli-path":        "pocket.cli_path",
	"pocket-cli-config-path": "pocket.cli_config_path",
	"pocket-voices-manifest": "pocket.voices_manifest",
	"pocket-quiet":           "pocket.quiet",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("voice", defaults.Voice.Preset, "Voice preset (google|pocket)")
	fs.String("backend", defaults.Voice.Backend, "Backend override (google|pocket; empty = preset backend)")
	fs.String("lang1", defaults.Voice.Lang1, "Primary language code, e.g. en-US")
	fs.String("lang2", defaults.Voice.Lang2, "Secondary language code; voices alternate per chunk when set")
	fs.String("speaker", defaults.Voice.Speaker, "Speaker or voice name (preset default when empty)")
	fs.String("speaker2", defaults.Voice.Speaker2, "Secondary speaker; alternates with --speaker per chunk")
	fs.String("speaker-wav", defaults.Voice.SpeakerWAV, "Reference voice sample for voice cloning (pocket only)")
	fs.Int("max-chars", defaults.Chunk.MaxChars, "Maximum characters per chunk (0 = preset default)")
	fs.String("granularity", defaults.Chunk.Granularity, "Chunk boundary: words|sentences (empty = preset default)")
	fs.Int("min-unit-chars", defaults.Chunk.MinUnitChars, "Drop sentences shorter than this (0 = preset default)")
	fs.Int("concurrency", defaults.Synth.Concurrency, "Chunks synthesized in parallel")
	fs.Int("retries", defaults.Synth.Retries, "Retries per failed chunk")
	fs.Duration("retry-backoff", defaults.Synth.RetryBackoff, "Initial backoff between retries")
	fs.String("out", defaults.Output.Path, "Output file (.mp3 or .wav; preset default when empty)")
	fs.Bool("no-play", defaults.Output.NoPlay, "Skip playback after narration")
	fs.Bool("no-banner", defaults.Output.NoBanner, "Do not print the banner")
	fs.String("google-credentials", defaults.Google.CredentialsFile, "Service account JSON for Google Cloud TTS (ADC when empty)")
	fs.String("google-endpoint", defaults.Google.Endpoint, "Override the Google Cloud TTS endpoint")
	fs.Duration("google-timeout", defaults.Google.Timeout, "Per-request timeout for Google Cloud TTS")
	fs.String("pocket-cli-path", defaults.Pocket.CLIPath, "Path to pocket-tts executable")
	fs.String("pocket-cli-config-path", defaults.Pocket.CLIConfigPath, "Path to pocket-tts config file")
	fs.String("pocket-voices-manifest", defaults.Pocket.VoicesManifest, "Voice manifest JSON with extra pocket-tts voices")
	fs.Bool("pocket-quiet", defaults.Pocket.Quiet, "Pass --quiet to pocket-tts generate")
}

// Load resolves configuration with precedence flags > env > config file >
// defaults. An optional .env file is read first; variables already set in
// the process environment win over it.
func Load(opts LoadOptions) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("NARRATOR")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("google.credentials_file", "NARRATOR_GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); err != nil {
		return Config{}, fmt.Errorf("bind google credentials env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("narrator")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile reads path, or ./.env when path is empty. A missing default
// .env is not an error; a missing explicit one is.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("voice.preset", c.Voice.Preset)
	v.SetDefault("voice.backend", c.Voice.Backend)
	v.SetDefault("voice.lang1", c.Voice.Lang1)
	v.SetDefault("voice.lang2", c.Voice.Lang2)
	v.SetDefault("voice.speaker", c.Voice.Speaker)
	v.SetDefault("voice.speaker2", c.Voice.Speaker2)
	v.SetDefault("voice.speaker_wav", c.Voice.SpeakerWAV)
	v.SetDefault("chunk.max_chars", c.Chunk.MaxChars)
	v.SetDefault("chunk.granularity", c.Chunk.Granularity)
	v.SetDefault("chunk.min_unit_chars", c.Chunk.MinUnitChars)
	v.SetDefault("synth.concurrency", c.Synth.Concurrency)
	v.SetDefault("synth.retries", c.Synth.Retries)
	v.SetDefault("synth.retry_backoff", c.Synth.RetryBackoff)
	v.SetDefault("output.path", c.Output.Path)
	v.SetDefault("output.no_play", c.Output.NoPlay)
	v.SetDefault("output.no_banner", c.Output.NoBanner)
	v.SetDefault("google.credentials_file", c.Google.CredentialsFile)
	v.SetDefault("google.endpoint", c.Google.Endpoint)
	v.SetDefault("google.timeout", c.Google.Timeout)
	v.SetDefault("pocket.cli_path", c.Pocket.CLIPath)
	v.SetDefault("pocket.cli_config_path", c.Pocket.CLIConfigPath)
	v.SetDefault("pocket.voices_manifest", c.Pocket.VoicesManifest)
	v.SetDefault("pocket.quiet", c.Pocket.Quiet)
}

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
