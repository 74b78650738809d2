// Package url provides URL classification for the session tracker.
package url

import "strings"

// systemPrefixes are the schemes (and scheme-like prefixes) whose URLs
// belong to the browser itself rather than user content. They are
// excluded when seeding a session; event handlers may still reference
// them so that close/removal logic works for already-recorded entries.
var systemPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"chrome-search://",
	"chrome-devtools://",
	"devtools://",
	"moz-extension://",
	"about:",
	"edge://",
	"extension://",
	"opera://",
	"vivaldi://",
	"brave://",
	"view-source:",
	"javascript:",
	"data:",
	"blob:",
}

// IsSystemURL reports whether a URL should be excluded from persistence.
// Empty URLs count as system URLs.
func IsSystemURL(raw string) bool {
	if raw == "" {
		return true
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// IsContentURL is the inverse of IsSystemURL.
func IsContentURL(raw string) bool {
	return !IsSystemURL(raw)
}

// ContentURLs filters a URL list down to content URLs, preserving order.
func ContentURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if IsContentURL(u) {
			out = append(out, u)
		}
	}
	return out
}
