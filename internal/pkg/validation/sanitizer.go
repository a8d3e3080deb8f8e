package validation

import (
	"regexp"
	"strings"
)

// sessionKey is the cookie name users paste from browser devtools.
const sessionKey = "sessionid="

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// SanitizeSessionToken normalizes a pasted credential string down to the
// bare token value. Users commonly paste a whole cookie header fragment
// ("sessionid=abc123; Path=/; HttpOnly"): detect the known key name and
// strip any trailing ;-delimited attributes.
func SanitizeSessionToken(raw string) string {
	clean := strings.TrimSpace(raw)
	if idx := strings.Index(strings.ToLower(clean), sessionKey); idx >= 0 {
		clean = clean[idx+len(sessionKey):]
		if semi := strings.Index(clean, ";"); semi >= 0 {
			clean = clean[:semi]
		}
	}
	return strings.TrimSpace(clean)
}

// SanitizeString trims whitespace, removes control characters and caps the
// length of free-text fields from upstream payloads.
func SanitizeString(s string) string {
	out := strings.TrimSpace(s)
	out = controlChars.ReplaceAllString(out, "")
	if len(out) > 200 {
		out = out[:200]
	}
	return out
}

// SanitizeTeamName additionally collapses repeated whitespace.
func SanitizeTeamName(name string) string {
	out := SanitizeString(name)
	out = multiSpace.ReplaceAllString(out, " ")
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
