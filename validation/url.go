// Package validation holds the URL checks applied to document references.
package validation

import (
	"net/url"
	"strings"
)

// IsValidURL reports whether s parses as a URL with both a scheme and a
// host. No network access is performed.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsPDFURL reports whether s looks like a direct PDF link. URL intake does
// not enforce this; it is an optional filter for callers that want one.
func IsPDFURL(s string) bool {
	return strings.HasSuffix(strings.ToLower(s), ".pdf")
}
