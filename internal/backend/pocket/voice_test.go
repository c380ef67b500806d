package pocket

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest writes manifest JSON into dir and returns its path.
func writeManifest(t *testing.T, dir, manifest string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestNewVoiceManager_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"invalid json", "{bad json"},
		{"empty id", `{"voices":[{"id":"","path":"v.safetensors"}]}`},
		{"empty path", `{"voices":[{"id":"v1","path":""}]}`},
		{"duplicate id", `{"voices":[{"id":"v1","path":"a.safetensors"},{"id":"v1","path":"b.safetensors"}]}`},
		{"shadows built-in", `{"voices":[{"id":"alba","path":"a.safetensors"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.manifest)
			if _, err := NewVoiceManager(path); err == nil {
				t.Errorf("NewVoiceManager(%s) = nil; want error", tt.name)
			}
		})
	}
}

func TestNewVoiceManager_MissingOrEmptyPath(t *testing.T) {
	if _, err := NewVoiceManager(""); err == nil {
		t.Error(`NewVoiceManager("") = nil; want error`)
	}
	if _, err := NewVoiceManager("/nonexistent/manifest.json"); err == nil {
		t.Error("NewVoiceManager(missing) = nil; want error")
	}
}

func TestNewVoiceManager_EmptyVoicesList(t *testing.T) {
	mgr, err := NewVoiceManager(writeManifest(t, t.TempDir(), `{"voices":[]}`))
	if err != nil {
		t.Fatalf("NewVoiceManager(empty list) error = %v", err)
	}
	if len(mgr.Voices()) != 0 {
		t.Error("expected empty voice list")
	}
}

func TestResolve(t *testing.T) {
	tmp := t.TempDir()
	absVoice := filepath.Join(tmp, "abs.safetensors")
	relVoice := filepath.Join(tmp, "voices", "rel.safetensors")
	if err := os.MkdirAll(filepath.Dir(relVoice), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, p := range []string{absVoice, relVoice} {
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	mgr, err := NewVoiceManager(writeManifest(t, tmp, `{"voices":[
		{"id":"abs","path":"`+absVoice+`","license":"CC-BY"},
		{"id":"rel","path":"voices/rel.safetensors","license":"MIT"},
		{"id":"gone","path":"missing.safetensors","license":""}
	]}`))
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	tests := []struct {
		id      string
		want    string
		wantErr error
	}{
		{id: "abs", want: absVoice},
		{id: "rel", want: relVoice},
		{id: "gone", wantErr: os.ErrNotExist},
		{id: "nobody", wantErr: ErrUnknownVoice},
	}

	for _, tt := range tests {
		got, err := mgr.Resolve(tt.id)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve(%q) error = %v; want %v", tt.id, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.id, got, err, tt.want)
		}
	}
}

func TestVoices_ReturnsCopy(t *testing.T) {
	mgr, err := NewVoiceManager(writeManifest(t, t.TempDir(), `{"voices":[{"id":"v1","path":"v.safetensors","license":"MIT"}]}`))
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	first := mgr.Voices()
	first[0].ID = "mutated"

	if second := mgr.Voices(); second[0].ID != "v1" {
		t.Error("Voices did not return an independent copy")
	}
}
