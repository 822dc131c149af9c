package handler

import "strings"

// SafeNext returns next if it is a local absolute path, fallback otherwise.
func SafeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}

	return next
}
