package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/narrator/internal/backend/pocket"
	"github.com/example/narrator/internal/config"
	"github.com/example/narrator/internal/doctor"
)

// Replaced in tests.
var (
	versionOfPocketTTS = pocketTTSVersion
	versionOfPython    = pythonVersion
)

func newDoctorCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the selected backend can run",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := a.cfg

			preset, err := resolvePreset(cfg.Voice)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "preset: %s (backend %s)\n", preset.Name, preset.Backend)

			dcfg := doctor.Config{
				PocketTTSVersion:  func() (string, error) { return versionOfPocketTTS(cfg.Pocket.CLIPath) },
				PythonVersion:     versionOfPython,
				SkipPocket:        !all && preset.Backend != config.BackendPocket,
				GoogleCredentials: cfg.Google.CredentialsFile,
				SkipGoogle:        !all && preset.Backend != config.BackendGoogle,
			}
			if !dcfg.SkipPocket && cfg.Pocket.VoicesManifest != "" {
				dcfg.VoiceFiles, dcfg.ManifestErr = collectVoiceFiles(cfg.Pocket.VoicesManifest)
			}

			result := doctor.Run(dcfg, a.stdout)
			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(a.stderr, "FAIL: %s\n", f)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(a.stdout, "doctor checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Check every backend, not only the selected preset's")

	return cmd
}

func pocketTTSVersion(exe string) (string, error) {
	if exe == "" {
		exe = "pocket-tts"
	}
	out, err := exec.CommandContext(context.Background(), exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", exe, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// pythonVersion tries python3 then python.
func pythonVersion() (string, error) {
	for _, bin := range []string{"python3", "python"} {
		out, err := exec.CommandContext(context.Background(), bin, "--version").Output()
		if err != nil {
			continue
		}
		raw := strings.TrimPrefix(strings.TrimSpace(string(out)), "Python ")
		if raw != "" {
			return raw, nil
		}
	}
	return "", errors.New("python3/python not found on PATH")
}

// collectVoiceFiles returns absolute embedding paths from the manifest.
// Unresolvable entries keep their raw path so the stat check reports them.
func collectVoiceFiles(manifest string) ([]string, error) {
	vm, err := pocket.NewVoiceManager(manifest)
	if err != nil {
		return nil, err
	}

	voices := vm.Voices()
	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.Resolve(v.ID)
		if err != nil {
			paths = append(paths, v.Path)
			continue
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		paths = append(paths, resolved)
	}
	return paths, nil
}
