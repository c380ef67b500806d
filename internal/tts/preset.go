package tts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/narrator/internal/config"
	"github.com/example/narrator/internal/text"
)

// Preset bundles a backend with the chunking rules its input limit needs.
type Preset struct {
	Name      string
	Backend   config.Backend
	Chunk     text.ChunkOptions
	ASCIIOnly bool
	// Speaker is used when no speaker is configured.
	Speaker string
	// Output is the default track path; its extension picks the container.
	Output string
}

// Presets lists the built-in voice presets by name.
var Presets = map[string]Preset{
	"google": {
		Name:    "google",
		Backend: config.BackendGoogle,
		Chunk: text.ChunkOptions{
			MaxChars:    4000,
			Granularity: text.Words,
		},
		Output: "narration.mp3",
	},
	"pocket": {
		Name:    "pocket",
		Backend: config.BackendPocket,
		Chunk: text.ChunkOptions{
			MaxChars:     500,
			Granularity:  text.Sentences,
			MinUnitChars: 5,
		},
		ASCIIOnly: true,
		Speaker:   "alba",
		Output:    "narration.wav",
	},
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := Presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("%w: unknown voice preset %q (expected %s)", ErrConfiguration, name, strings.Join(PresetNames(), "|"))
	}
	return p, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve applies the chunk overrides from cfg on top of the preset. Zero
// values keep the preset default.
func (p Preset) Resolve(cfg config.ChunkConfig) (text.ChunkOptions, error) {
	opts := p.Chunk
	if cfg.MaxChars < 0 {
		return text.ChunkOptions{}, fmt.Errorf("%w: max chars %d must be positive", ErrConfiguration, cfg.MaxChars)
	}
	if cfg.MaxChars > 0 {
		opts.MaxChars = cfg.MaxChars
	}
	if cfg.Granularity != "" {
		g, err := text.ParseGranularity(cfg.Granularity)
		if err != nil {
			return text.ChunkOptions{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		opts.Granularity = g
	}
	if cfg.MinUnitChars > 0 {
		opts.MinUnitChars = cfg.MinUnitChars
	}
	return opts, nil
}
