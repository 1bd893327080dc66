package classifier

import (
	"regexp"
	"strings"
)

// lines splits a cleaned capture into its constituent lines.
func lines(clean string) []string {
	if clean == "" {
		return nil
	}
	return strings.Split(clean, "\n")
}

// lastN returns the last n lines in original order, regardless of whether
// they are empty.
func lastN(ls []string, n int) []string {
	if n >= len(ls) {
		return ls
	}
	return ls[len(ls)-n:]
}

// lastNNonEmpty returns the last n non-empty (after trim) lines, in original
// order, scanning backward from the end of the capture.
func lastNNonEmpty(ls []string, n int) []string {
	out := make([]string, 0, n)
	for i := len(ls) - 1; i >= 0 && len(out) < n; i-- {
		if strings.TrimSpace(ls[i]) == "" {
			continue
		}
		out = append([]string{ls[i]}, out...)
	}
	return out
}

func joinLines(ls []string) string {
	return strings.Join(ls, "\n")
}

func anyMatch(pats []*regexp.Regexp, s string) bool {
	for _, p := range pats {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func firstMatchingLine(pats []*regexp.Regexp, ls []string) (string, bool) {
	for _, ln := range ls {
		for _, p := range pats {
			if p.MatchString(ln) {
				return ln, true
			}
		}
	}
	return "", false
}
