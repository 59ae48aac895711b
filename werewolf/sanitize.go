package main

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxNameLen = 24

// Strict policy for player and deck names: only text, no HTML.
var namePolicy = bluemonday.StrictPolicy()

// SanitizeName strips HTML from a player or deck name, trims it and
// limits it to maxNameLen runes. It returns an empty string when nothing
// usable remains.
func SanitizeName(name string) string {
	decoded := html.UnescapeString(name)
	sanitized := strings.TrimSpace(namePolicy.Sanitize(decoded))
	if utf8.RuneCountInString(sanitized) > maxNameLen {
		sanitized = string([]rune(sanitized)[:maxNameLen])
	}
	return sanitized
}
