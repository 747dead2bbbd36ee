package rule

import (
	"strings"

	"github.com/taylorza/zopt/langexpr"
)

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

func isPlaceholderAt(s string, i int) bool {
	return s[i] == '$' && i+1 < len(s) && isDigitByte(s[i+1])
}

// MatchLine walks pattern and line in lockstep, skipping runs of spaces
// in each before every step, binding $n placeholders into b as it goes.
// A placeholder already bound in b must reproduce the same captured text
// for the match to succeed; a placeholder seen for the first time binds
// whatever it captures. The literal text following a placeholder (up to
// the next placeholder or end of pattern) is located in line by plain
// substring search, so a placeholder with no following literal greedily
// captures the remainder of the line.
func MatchLine(pattern, line string, b *langexpr.Bindings) bool {
	pi, li := 0, 0

	for pi < len(pattern) {
		for pi < len(pattern) && pattern[pi] == ' ' {
			pi++
		}
		for li < len(line) && line[li] == ' ' {
			li++
		}
		if pi >= len(pattern) {
			break
		}

		if isPlaceholderAt(pattern, pi) {
			idx := int(pattern[pi+1] - '0')
			pi += 2

			litStart := pi
			for pi < len(pattern) && !isPlaceholderAt(pattern, pi) {
				pi++
			}
			lit := pattern[litStart:pi]

			var capture string
			if lit == "" {
				capture = line[li:]
				li = len(line)
			} else {
				rel := strings.Index(line[li:], lit)
				if rel == -1 {
					return false
				}
				capture = line[li : li+rel]
				li = li + rel + len(lit)
			}

			if existing, bound := b.Get(idx); bound {
				if existing != capture {
					return false
				}
			} else {
				b.Set(idx, capture)
			}
			continue
		}

		if li >= len(line) || pattern[pi] != line[li] {
			return false
		}
		pi++
		li++
	}

	return li >= len(line)
}

// MatchRule attempts to match every pattern line of r against the
// corresponding lines of window, in order, sharing a single bindings
// environment across lines so a placeholder repeated across pattern
// lines must capture identical text everywhere it appears. It does not
// evaluate r's constraint; callers check that separately once bindings
// are fully populated.
func MatchRule(r *Rule, window []string, b *langexpr.Bindings) bool {
	if len(r.Pattern) > len(window) {
		return false
	}
	for i, pat := range r.Pattern {
		if !MatchLine(pat.String(), window[i], b) {
			return false
		}
	}
	return true
}
