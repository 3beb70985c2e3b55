package app

import (
	"net/url"
	"strings"
)

// originMatches reports whether a request origin is covered by any of the
// configured patterns. Patterns compare against the origin's host[:port]
// and may be exact values, "*.domain" suffix wildcards, or "host:*" port
// wildcards.
func originMatches(patterns []string, origin string) bool {
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, pattern := range patterns {
		switch {
		case pattern == host:
			return true
		case strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]):
			return true
		case strings.HasSuffix(pattern, ":*") && strings.HasPrefix(host, pattern[:len(pattern)-1]):
			return true
		}
	}
	return false
}
