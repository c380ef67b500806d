// Package doctor runs environment preflight checks for the narrate backends.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark prefix each printed check line.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds what each check needs. Checks for a backend that is not in
// use are skipped.
type Config struct {
	// PocketTTSVersion returns the output of `pocket-tts --version`.
	PocketTTSVersion VersionFunc
	// PythonVersion returns e.g. "3.11.4".
	PythonVersion VersionFunc
	SkipPocket    bool

	// GoogleCredentials is the service account file. Empty means
	// application default credentials, which cannot be checked offline.
	GoogleCredentials string
	SkipGoogle        bool

	// VoiceFiles are resolved voice embedding paths from the manifest.
	VoiceFiles []string
	// ManifestErr is set when the voice manifest failed to load.
	ManifestErr error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed reports whether any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns a copy of the failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure records a failure from a check run outside this package.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

type reporter struct {
	w   io.Writer
	res *Result
}

func (p reporter) pass(name, detail string) {
	fmt.Fprintf(p.w, "%s %s: %s\n", PassMark, name, detail)
}

func (p reporter) fail(name, detail string, err error) {
	p.res.AddFailure(fmt.Sprintf("%s: %v", name, err))
	fmt.Fprintf(p.w, "%s %s: %s\n", FailMark, name, detail)
}

// Run executes the configured checks and writes one line per check to w.
func Run(cfg Config, w io.Writer) Result {
	var res Result
	p := reporter{w: w, res: &res}

	if cfg.SkipPocket {
		p.pass("pocket-tts binary", "skipped")
		p.pass("python version", "skipped")
	} else {
		checkPocket(cfg, p)
	}

	if cfg.SkipGoogle {
		p.pass("google credentials", "skipped")
	} else {
		checkGoogle(cfg.GoogleCredentials, p)
	}

	if cfg.ManifestErr != nil {
		p.fail("voice manifest", cfg.ManifestErr.Error(), cfg.ManifestErr)
	}
	for _, path := range cfg.VoiceFiles {
		if _, err := os.Stat(path); err != nil {
			p.fail(fmt.Sprintf("voice file %q", path), "not found", err)
			continue
		}
		p.pass("voice file", path)
	}

	return res
}

func checkPocket(cfg Config, p reporter) {
	if cfg.PocketTTSVersion != nil {
		ver, err := cfg.PocketTTSVersion()
		if err != nil {
			p.fail("pocket-tts binary", fmt.Sprintf("not found (%v)", err), err)
		} else {
			p.pass("pocket-tts binary", ver)
		}
	}

	if cfg.PythonVersion != nil {
		ver, err := cfg.PythonVersion()
		switch {
		case err != nil:
			p.fail("python version", fmt.Sprintf("not found (%v)", err), err)
		case checkPythonVersion(ver) != nil:
			verErr := checkPythonVersion(ver)
			p.fail("python version", fmt.Sprintf("%s: %v", ver, verErr), verErr)
		default:
			p.pass("python version", ver)
		}
	}
}

func checkGoogle(path string, p reporter) {
	if path == "" {
		p.pass("google credentials", "application default credentials")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		p.fail("google credentials", "not found at "+path, err)
		return
	}
	if info.IsDir() {
		p.fail("google credentials", path+" is a directory", fmt.Errorf("%s is a directory", path))
		return
	}
	p.pass("google credentials", path)
}

// checkPythonVersion accepts 3.10 up to but excluding 3.15, the range
// pocket-tts supports.
func checkPythonVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	switch {
	case major != 3:
		return fmt.Errorf("requires Python 3, got %d", major)
	case minor < 10:
		return fmt.Errorf("requires Python >=3.10, got 3.%d", minor)
	case minor >= 15:
		return fmt.Errorf("requires Python <3.15, got 3.%d", minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
