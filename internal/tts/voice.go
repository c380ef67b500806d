package tts

import (
	"context"
	"strings"

	"github.com/example/narrator/internal/audio"
)

// Voice selects how one chunk is spoken. Backends ignore fields they do not
// support: pocket-tts has no language selection, for example.
type Voice struct {
	Language string
	Speaker  string
}

func (v Voice) String() string {
	parts := make([]string, 0, 2)
	if v.Language != "" {
		parts = append(parts, v.Language)
	}
	if v.Speaker != "" {
		parts = append(parts, v.Speaker)
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "/")
}

// VoicePlan assigns a voice to every chunk ordinal. With no secondary voice
// every chunk uses Primary; otherwise even ordinals use Primary and odd
// ordinals use Secondary.
type VoicePlan struct {
	Primary   Voice
	Secondary Voice
}

// NewVoicePlan builds a plan from the CLI's voice flags. The secondary voice
// inherits whichever of lang2/speaker2 is unset from the primary.
func NewVoicePlan(lang1, lang2, speaker, speaker2 string) VoicePlan {
	plan := VoicePlan{Primary: Voice{Language: lang1, Speaker: speaker}}
	if lang2 == "" && speaker2 == "" {
		return plan
	}

	plan.Secondary = plan.Primary
	if lang2 != "" {
		plan.Secondary.Language = lang2
	}
	if speaker2 != "" {
		plan.Secondary.Speaker = speaker2
	}
	return plan
}

// Alternates reports whether the plan switches voices between chunks.
func (p VoicePlan) Alternates() bool {
	return p.Secondary != (Voice{}) && p.Secondary != p.Primary
}

// For returns the voice for chunk ordinal i.
func (p VoicePlan) For(i int) Voice {
	if i%2 == 1 && p.Alternates() {
		return p.Secondary
	}
	return p.Primary
}

// Synthesizer converts one chunk of text into encoded audio. Implementations
// must be safe for concurrent use when the service runs with concurrency > 1.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, v Voice) (audio.Clip, error)
	Close() error
}

// Speaker is one voice a backend can speak with.
type Speaker struct {
	Name      string
	Languages []string
	Detail    string
}

// SpeakerLister is implemented by backends that can enumerate their voices.
// An empty language lists every voice.
type SpeakerLister interface {
	ListSpeakers(ctx context.Context, language string) ([]Speaker, error)
}
