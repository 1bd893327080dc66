package classifier

// detectFamilyA implements the Claude Code-like rule pack:
// permission prompts, numbered selection, Braille spinners,
// gerund/⏺ tool-activity lines, checkmark completion.
func detectFamilyA(clean string) StatusDetection {
	ls := lines(clean)
	if len(ls) == 0 {
		return detected(StatusStopped).withReason("no output captured")
	}

	last5 := lastNNonEmpty(ls, 5)
	last5Text := joinLines(last5)
	last15 := lastN(ls, 15)

	// 1. Questions / permission prompts (highest priority).
	if anyMatch(questionPatterns, last5Text) {
		return detected(StatusAwaitingInput).
			withReason("question/permission prompt").
			withPattern("QUESTION_PATTERNS")
	}

	// 2-3. Spinner / tool activity in the last 3 non-empty lines, ahead of
	// the prompt check per the documented "Running BEFORE prompt" ordering.
	last3 := lastNNonEmpty(ls, 3)
	last3Text := joinLines(last3)
	if spinnerChars.MatchString(last3Text) {
		return detected(StatusRunning).withReason("spinner glyph").withPattern("SPINNER_CHARS")
	}
	if familyAToolActivity.MatchString(last3Text) || familyAGerundVerb.MatchString(last3Text) {
		return detected(StatusRunning).withReason("tool activity").withPattern("FAMILY_A_TOOL_ACTIVITY")
	}

	// 6. Errors.
	if ln, ok := firstMatchingLine(errorPatterns, last15); ok {
		return detected(StatusError).withReason(snippet(ln)).withPattern("ERROR_PATTERNS")
	}

	// 7-8. At the prompt.
	if atShortPromptLine(last5) {
		last10 := lastN(ls, 10)
		if anyMatch(completionPatterns, joinLines(last10)) {
			return detected(StatusCompleted).withReason("completion marker at prompt").withPattern("COMPLETION_PATTERNS")
		}
		return detected(StatusIdle).withReason("at prompt")
	}

	return unresolved
}

func atShortPromptLine(last5 []string) bool {
	if len(last5) == 0 {
		return false
	}
	ln := last5[len(last5)-1]
	return len(ln) <= 3 && atPromptGlyph.MatchString(ln)
}

func snippet(s string) string {
	s = trimSpace(s)
	if len(s) > 40 {
		return s[:40]
	}
	return s
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
