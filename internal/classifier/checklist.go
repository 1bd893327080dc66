package classifier

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// checklistTreePrefix is the set of tree-drawing characters trimmed from the
// start of a line before checkbox glyph matching.
const checklistTreePrefix = "│├└─ "

// DetectChecklist classifies checklist progress out of a pane capture for
// the given family. It returns ok=false when
// no checklist markers are present at all.
func DetectChecklist(capture string, family Family) (ChecklistProgress, bool) {
	switch family {
	case FamilyB:
		return detectChecklistOpencode(capture)
	default:
		// Families A, C, D: Claude Code-style detection. C and D are
		// routed through the same routine explicitly rather than via a
		// silent shared default; see DESIGN.md for the rationale.
		return detectChecklistFamilyA(capture)
	}
}

// detectChecklistFamilyA scans for Claude Code-style checklist markers: an
// authoritative "N tasks (M done" summary line, a "+N completed" collapsed
// suffix, or per-line checkbox/checkmark glyphs after trimming tree-drawing
// prefixes.
func detectChecklistFamilyA(capture string) (ChecklistProgress, bool) {
	clean := stripANSI(capture)
	var completed, total uint32

	for _, raw := range strings.Split(clean, "\n") {
		trimmed := strings.TrimSpace(raw)

		if m := checklistSummary.FindStringSubmatch(trimmed); m != nil {
			// In "(\d+)\s+tasks?\s*\((\d+)\s+done", group 1 is total, group 2 is done.
			t, errT := strconv.ParseUint(m[1], 10, 32)
			d, errD := strconv.ParseUint(m[2], 10, 32)
			if errT == nil && errD == nil {
				if d > t {
					// A garbled summary line never yields done > total.
					d = t
				}
				return ChecklistProgress{Completed: uint32(d), Total: uint32(t)}, true
			}
		}

		if m := checklistCollapsedTotal.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.ParseUint(m[1], 10, 32); err == nil {
				completed += uint32(n)
				total += uint32(n)
				continue
			}
		}

		checkPart := strings.TrimLeft(trimmed, checklistTreePrefix)

		switch {
		case hasAnyPrefix(checkPart, "[✓]", "[✔]", "[✅]"):
			completed++
			total++
		case hasAnyPrefix(checkPart, "[•]", "[○]", "[ ]"):
			total++
		case hasAnyPrefix(checkPart, "✓", "✔", "☑", "✅"):
			completed++
			total++
		case hasAnyPrefix(checkPart, "◼", "■", "▪", "●", "◻", "□", "☐", "○"):
			total++
		}
	}

	if total == 0 {
		return ChecklistProgress{}, false
	}
	return ChecklistProgress{Completed: completed, Total: total}, true
}

// detectChecklistOpencode scans only the rightmost sidePanelWidth columns
// of each line, since Opencode renders its checklist in a side panel and
// chat text mentioning "todo" should not be double-counted. The window is
// measured in terminal columns, not runes, so a wide glyph in the chat
// body cannot shift a chat checkbox into the panel window.
func detectChecklistOpencode(capture string) (ChecklistProgress, bool) {
	clean := stripANSI(capture)
	var completed, total uint32

	for _, raw := range strings.Split(clean, "\n") {
		trimmed := strings.TrimSpace(raw)
		sidePanel := rightColumns(trimmed, sidePanelWidth)

		switch {
		case strings.Contains(sidePanel, "[✓]"), strings.Contains(sidePanel, "[✔]"), strings.Contains(sidePanel, "[✅]"):
			completed++
			total++
		case strings.Contains(sidePanel, "[•]"), strings.Contains(sidePanel, "[○]"), strings.Contains(sidePanel, "[ ]"):
			total++
		}
	}

	if total == 0 {
		return ChecklistProgress{}, false
	}
	return ChecklistProgress{Completed: completed, Total: total}, true
}

// rightColumns returns the suffix of s occupying at most width terminal
// columns, walking runes from the end. Runes x/ansi measures as zero-width
// (some emoji/CJK checklist glyphs) fall back to go-runewidth.
func rightColumns(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}

	runes := []rune(s)
	cols := 0
	i := len(runes)
	for i > 0 {
		r := runes[i-1]
		w := ansi.StringWidth(string(r))
		if w == 0 {
			w = runewidth.RuneWidth(r)
		}
		if cols+w > width {
			break
		}
		cols += w
		i--
	}
	return string(runes[i:])
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
