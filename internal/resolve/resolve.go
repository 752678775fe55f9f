// Package resolve turns media references found inside a playlist into
// paths usable by the player.
package resolve

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Path resolves ref against the directory containing playlist.
// Absolute paths are returned cleaned, file:// URLs are converted to paths
// and other URLs (http://, https://...) are returned unchanged.
func Path(playlist, ref string) string {
	if IsURL(ref) {
		if !strings.HasPrefix(strings.ToLower(ref), "file://") {
			return ref
		}
		u, err := url.Parse(ref)
		if err != nil || u.Path == "" {
			return ref
		}
		return filepath.Clean(filepath.FromSlash(u.Path))
	}

	ref = filepath.FromSlash(ref)
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(filepath.Dir(playlist), ref)
}

// IsURL reports whether ref starts with a scheme such as "http://".
func IsURL(ref string) bool {
	i := strings.Index(ref, "://")
	if i <= 1 {
		// A single letter before ':' is a Windows drive, not a scheme.
		return false
	}
	for _, c := range ref[:i] {
		if !isSchemeChar(c) {
			return false
		}
	}
	return true
}

func isSchemeChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '+' || c == '-' || c == '.'
}
