package unfilled

import (
	"regexp"
	"strings"
)

// unitWindow bounds how far past a measurement marker the unit search looks
const unitWindow = 24

// contextWindow bounds the surrounding-context excerpt kept with each item
const contextWindow = 60

var (
	parenUnitRe  = regexp.MustCompile(`\(([A-Za-z%/]{1,8})\)`)
	suffixUnitRe = regexp.MustCompile(`^[\s:=-]*([A-Za-z%]{1,6})\b`)
)

// knownUnits are unit abbreviations accepted as measurement suffixes.
// Anything else after a marker is treated as prose, not a unit.
var knownUnits = map[string]bool{
	"mm": true, "cm": true, "m": true,
	"ml": true, "cc": true, "l": true,
	"mg": true, "g": true, "kg": true,
	"hu": true, "bpm": true, "mmhg": true,
	"s": true, "ms": true, "min": true,
	"%": true, "fr": true, "gy": true, "mgy": true,
}

// extractUnit recovers the measurement unit that follows a placeholder
// marker. It inspects a bounded window after the marker and returns the
// first unit-like token, preferring a parenthesized abbreviation over a
// bare suffix. Absence of a recognizable unit yields an empty string.
func extractUnit(text string, after int) string {
	if after < 0 || after >= len(text) {
		return ""
	}
	end := after + unitWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[after:end]

	if m := parenUnitRe.FindStringSubmatch(window); m != nil {
		if knownUnits[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	if m := suffixUnitRe.FindStringSubmatch(window); m != nil {
		if knownUnits[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	return ""
}

// parseAlternatives splits the inside of a bracketed option list on
// slashes and trims each option. Fewer than two non-empty options means
// the bracket was not an alternative set; nil is returned.
func parseAlternatives(inner string) []string {
	parts := strings.Split(inner, "/")
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		return nil
	}
	return options
}

// surroundingContext returns a bounded excerpt around a match, used for
// disambiguation and assistant prompting.
func surroundingContext(text string, index, length int) string {
	start := index - contextWindow
	if start < 0 {
		start = 0
	}
	end := index + length + contextWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
