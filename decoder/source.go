package decoder

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// AudioExtensions lists the local file formats accepted without probing.
var AudioExtensions = []string{".mp3", ".flac", ".ogg", ".opus", ".wav", ".m4a", ".aac", ".wma", ".aiff"}

// ValidateSource normalizes a path or URI and rejects anything that could be
// mistaken for a command-line flag or that uses an unsupported scheme.
func ValidateSource(source string) (string, error) {
	s := strings.TrimSpace(source)
	if s == "" {
		return "", fmt.Errorf("%w: empty source", ErrUnsupported)
	}

	if strings.ContainsAny(s, "\x00\n\r") {
		return "", fmt.Errorf("%w: control characters in source", ErrUnsupported)
	}

	if strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("%w: source must not start with '-'", ErrUnsupported)
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return s, nil
		case "file":
			return filepath.Clean(u.Path), nil
		default:
			return "", fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
		}
	}

	return filepath.Clean(s), nil
}

// IsRemote reports whether a validated source is fetched over the network.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// HasAudioExtension reports whether a local path carries a known audio extension.
func HasAudioExtension(path string) bool {
	return lo.Contains(AudioExtensions, strings.ToLower(filepath.Ext(path)))
}
