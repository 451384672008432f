// Package keys builds the Redis keys for stored extents.
package keys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const prefix = "osm:extent"

// ExtentKey is the key of a dataset's latest summary. The readable part is
// sanitized and truncated; the hash of the raw name keeps keys distinct.
func ExtentKey(dataset string) string {
	raw := strings.TrimSpace(dataset)
	safe := sanitize(raw)

	const maxNameLen = 120
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}

	sum := xxhash.Sum64String(raw)
	return fmt.Sprintf("%s:%s:h=%016x", prefix, safe, sum)
}

// RunKey is the key of one run's summary within a dataset.
func RunKey(dataset, runID string) string {
	return ExtentKey(dataset) + ":run=" + sanitize(strings.TrimSpace(runID))
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// Any other rune (including ':' and non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
