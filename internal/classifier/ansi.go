package classifier

import "regexp"

// ansiPattern strips CSI and OSC escape sequences. All rule matching
// operates on the stripped text, so classification is invariant under
// terminal formatting.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\].*?(\x07|\x1b\\)`)

// stripANSI removes terminal escape sequences from a pane capture.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
