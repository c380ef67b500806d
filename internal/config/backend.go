package config

import (
	"fmt"
	"strings"
)

// Backend names a speech synthesis service.
type Backend string

const (
	BackendGoogle Backend = "google"
	BackendPocket Backend = "pocket"
)

func NormalizeBackend(raw string) (Backend, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = string(BackendGoogle)
	}
	switch backend {
	case string(BackendGoogle), "gcp", "google-cloud":
		return BackendGoogle, nil
	case string(BackendPocket), "pocket-tts", "pockettts":
		return BackendPocket, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s)",
			raw,
			BackendGoogle,
			BackendPocket,
		)
	}
}
