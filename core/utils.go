package core

import "strings"

// CleanString trims surrounding whitespace from a raw field value.
// Pass true to also lower-case it, for case-insensitive sentinels.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
