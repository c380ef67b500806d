package testutil_test

import (
	"os"
	"testing"

	"github.com/example/narrator/internal/testutil"
)

func TestWriteSilenceWAV(t *testing.T) {
	path := testutil.WriteSilenceWAV(t, t.TempDir(), 24000, 100)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	info := testutil.AssertValidWAV(t, data, 24000, 1)
	if got := info.Duration(); got < 0.099 || got > 0.101 {
		t.Errorf("duration = %.3fs, want 0.100s", got)
	}
}

func TestAssertValidMP3_AcceptsTagAndSync(t *testing.T) {
	testutil.AssertValidMP3(t, []byte{'I', 'D', '3', 4, 0})
	testutil.AssertValidMP3(t, []byte{0xFF, 0xFB, 0x90, 0x00})
}

func TestRequirePocketTTS_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("NARRATOR_POCKET_CLI_PATH", "/nonexistent/pocket-tts-binary")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequirePocketTTS(fakeT)
	if !skipped {
		t.Error("expected RequirePocketTTS to skip when binary is absent")
	}
}

func TestRequireGoogleCredentials_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("NARRATOR_GOOGLE_CREDENTIALS_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/nonexistent/sa.json")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireGoogleCredentials(fakeT)
	if !skipped {
		t.Error("expected RequireGoogleCredentials to skip when the key file is missing")
	}
}

func TestRequireGoogleCredentials_FindsFile(t *testing.T) {
	key := t.TempDir() + "/sa.json"
	if err := os.WriteFile(key, []byte("{}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("NARRATOR_GOOGLE_CREDENTIALS_FILE", key)

	if got := testutil.RequireGoogleCredentials(t); got != key {
		t.Errorf("RequireGoogleCredentials = %q, want %q", got, key)
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip; that would actually skip the outer test.
}
