package classifier

import "strings"

// detectFamilyC implements the Codex-like rule pack:
// the "• Working (Ns • esc to interrupt)" timer and the question panel's
// navigation footer.
func detectFamilyC(clean string) StatusDetection {
	ls := lines(clean)
	if len(ls) == 0 {
		return detected(StatusStopped).withReason("no output captured")
	}

	fullLower := strings.ToLower(clean)
	last5 := lastNNonEmpty(ls, 5)
	last5Text := joinLines(last5)
	last15 := lastN(ls, 15)

	// The question panel is persistent and its indicators may sit above
	// the recent-line windows, so it is recognized by any of its footer
	// phrasings anywhere in the capture.
	isQuestionPanel := strings.Contains(fullLower, "unanswered") ||
		strings.Contains(fullLower, "tab to add notes") ||
		(strings.Contains(fullLower, "navigate") && strings.Contains(fullLower, "questions")) ||
		(strings.Contains(fullLower, "enter to submit") && strings.Contains(fullLower, "answer"))
	if isQuestionPanel {
		return detected(StatusAwaitingInput).withReason("question panel").withPattern("FAMILY_C_QUESTION_PANEL")
	}
	if anyMatch(questionPatterns, last5Text) {
		return detected(StatusAwaitingInput).withReason("question/permission prompt").withPattern("QUESTION_PATTERNS")
	}

	if familyCWorkingTimer.MatchString(fullLower) {
		return detected(StatusRunning).withReason("working timer").withPattern("FAMILY_C_WORKING_TIMER")
	}
	if spinnerChars.MatchString(last5Text) {
		return detected(StatusRunning).withReason("spinner glyph").withPattern("SPINNER_CHARS")
	}

	if ln, ok := firstMatchingLine(errorPatterns, last15); ok {
		return detected(StatusError).withReason(snippet(ln)).withPattern("ERROR_PATTERNS")
	}

	if atShortPromptLine(last5) {
		last10 := lastN(ls, 10)
		if anyMatch(completionPatterns, joinLines(last10)) {
			return detected(StatusCompleted).withReason("completion marker at prompt").withPattern("COMPLETION_PATTERNS")
		}
		return detected(StatusIdle).withReason("at prompt")
	}

	return unresolved
}
