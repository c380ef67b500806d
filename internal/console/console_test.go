package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, &buf, false).Banner()
	if buf.Len() == 0 {
		t.Fatal("expected banner output")
	}
	if lines := strings.Count(buf.String(), "\n"); lines < 3 {
		t.Errorf("banner has %d lines, want ASCII art", lines)
	}

	buf.Reset()
	New(&buf, &buf, true).Banner()
	if buf.Len() != 0 {
		t.Errorf("disabled banner wrote %q", buf.String())
	}
}

func TestLines(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, &buf, true)

	c.Info("reading %s", "input.md")
	c.Success("wrote %d bytes", 42)
	c.Progress(2, 5, "fr-FR")

	out := buf.String()
	for _, want := range []string{"reading input.md", "wrote 42 bytes", "[2/5]", "fr-FR"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestErrorGoesToErrorWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	New(&out, &errOut, true).Error(errors.New("boom"))

	if out.Len() != 0 {
		t.Errorf("error leaked to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "✗ boom") {
		t.Errorf("error output = %q", errOut.String())
	}
}

func TestSpeakers(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, &buf, true)

	c.Speakers(nil)
	if !strings.Contains(buf.String(), "no speakers") {
		t.Errorf("empty listing = %q", buf.String())
	}

	buf.Reset()
	c.Speakers([][2]string{{"alba", "built-in"}, {"en-US-Neural2-A", "FEMALE, 24000 Hz"}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "alba ") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestTips(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, &buf, true).Tips("narrator")

	out := buf.String()
	for _, want := range []string{"--lang2", "--max-chars", "narrator narrate"} {
		if !strings.Contains(out, want) {
			t.Errorf("tips missing %q", want)
		}
	}
}
