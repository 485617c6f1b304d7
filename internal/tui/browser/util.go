package browser

import "strings"

// compactPath shortens a long virtual path for narrow status lines, keeping
// the first and last components.
func compactPath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return path
	}
	short := parts[0] + "/…/" + parts[len(parts)-1]
	if len(short) < len(path) {
		return short
	}
	return path
}
