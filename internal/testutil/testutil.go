// Package testutil provides shared skip helpers and audio fixtures for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequirePocketTTS(t)
//	    ...
//	}
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequirePocketTTS skips the test if the pocket-tts binary is not found in
// PATH or the path given by the NARRATOR_POCKET_CLI_PATH environment variable.
// It returns the executable to run.
func RequirePocketTTS(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("NARRATOR_POCKET_CLI_PATH")
	if exe == "" {
		exe = "pocket-tts"
	}

	if _, err := exec.LookPath(exe); err != nil {
		tb.Skipf("pocket-tts binary not available (%q not in PATH); set NARRATOR_POCKET_CLI_PATH to override", exe)
	}
	return exe
}

// RequireGoogleCredentials skips the test unless a service account file is
// configured through GOOGLE_APPLICATION_CREDENTIALS or
// NARRATOR_GOOGLE_CREDENTIALS_FILE and exists on disk.
func RequireGoogleCredentials(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"NARRATOR_GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		p := os.Getenv(env)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			tb.Skipf("google credentials not found at %s=%q", env, p)
		}
		return p
	}

	tb.Skipf("google credentials not configured; set GOOGLE_APPLICATION_CREDENTIALS")
	return ""
}

// WriteSilenceWAV writes ms milliseconds of 16-bit mono silence at
// sampleRate into dir and returns the file path. It stands in for a speaker
// sample when no real recording is available.
func WriteSilenceWAV(tb testing.TB, dir string, sampleRate, ms int) string {
	tb.Helper()

	frames := sampleRate * ms / 1000
	dataSize := uint32(frames * 2)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))

	path := filepath.Join(dir, "silence.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		tb.Fatalf("write silence WAV: %v", err)
	}
	return path
}
