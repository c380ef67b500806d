package pocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// BuiltinVoices ship with pocket-tts and need no manifest entry.
var BuiltinVoices = []string{"alba", "marius", "javert", "jean", "fantine", "cosette", "eponine", "azelma"}

// ErrUnknownVoice is returned by VoiceManager.Resolve for ids it does not list.
var ErrUnknownVoice = errors.New("unknown voice id")

// Voice is one manifest entry: an exported voice embedding on disk.
type Voice struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	License string `json:"license"`
}

type voiceManifest struct {
	Voices []Voice `json:"voices"`
}

// VoiceManager resolves custom voice ids to embedding files. Relative paths
// in the manifest are resolved against the manifest's directory.
type VoiceManager struct {
	baseDir string
	voices  []Voice
	byID    map[string]Voice
}

func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var manifest voiceManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	mgr := &VoiceManager{
		baseDir: filepath.Dir(manifestPath),
		byID:    make(map[string]Voice, len(manifest.Voices)),
	}

	for _, v := range manifest.Voices {
		switch {
		case v.ID == "":
			return nil, errors.New("voice manifest contains empty id")
		case v.Path == "":
			return nil, fmt.Errorf("voice %q has empty path", v.ID)
		case slices.Contains(BuiltinVoices, v.ID):
			return nil, fmt.Errorf("voice %q shadows a built-in voice", v.ID)
		}
		if _, exists := mgr.byID[v.ID]; exists {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}

		mgr.byID[v.ID] = v
		mgr.voices = append(mgr.voices, v)
	}

	return mgr, nil
}

// Voices returns the manifest entries in file order.
func (m *VoiceManager) Voices() []Voice {
	return slices.Clone(m.voices)
}

// Resolve returns the absolute embedding path for id. The file must exist.
func (m *VoiceManager) Resolve(id string) (string, error) {
	v, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownVoice, id)
	}

	resolved := v.Path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(m.baseDir, resolved)
	}
	resolved = filepath.Clean(resolved)

	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}

	return resolved, nil
}
