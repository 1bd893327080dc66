package classifier

import "strings"

// detectFamilyB implements the Opencode-like rule pack:
// lowercase permission-required panel, esc-interrupt distinguished from
// its hint phrasing, long dot-run progress, dots-square spinner.
func detectFamilyB(clean string) StatusDetection {
	ls := lines(clean)
	if len(ls) == 0 {
		return detected(StatusStopped).withReason("no output captured")
	}

	fullLower := strings.ToLower(clean)
	last5 := lastNNonEmpty(ls, 5)
	last15 := lastN(ls, 15)
	last3 := lastNNonEmpty(ls, 3)
	last3Text := strings.ToLower(joinLines(last3))

	// The permission panel is persistent, so it is scanned in the full
	// capture: it may have scrolled past the recent-line windows while
	// still blocking the agent.
	if familyBPermissionRequired.MatchString(fullLower) {
		return detected(StatusAwaitingInput).withReason("permission required").withPattern("FAMILY_B_PERMISSION_REQUIRED")
	}
	if anyMatch(questionPatterns, joinLines(last5)) {
		return detected(StatusAwaitingInput).withReason("question/permission prompt").withPattern("QUESTION_PATTERNS")
	}

	if hasBareEscInterrupt(last3Text) {
		return detected(StatusRunning).withReason("esc interrupt").withPattern("FAMILY_B_ESC_INTERRUPT")
	}
	if familyBSpinner.MatchString(last3Text) || spinnerChars.MatchString(last3Text) {
		return detected(StatusRunning).withReason("spinner glyph").withPattern("FAMILY_B_SPINNER")
	}
	if familyBDotRun.MatchString(last3Text) {
		return detected(StatusRunning).withReason("progress dot run").withPattern("FAMILY_B_DOT_RUN")
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

// hasBareEscInterrupt reports whether text mentions "esc interrupt" as a
// live status indicator rather than as part of the longer keyboard-hint
// phrase "esc to interrupt".
func hasBareEscInterrupt(text string) bool {
	if !familyBEscInterrupt.MatchString(text) {
		return false
	}
	// Reject when the phrase actually present is the longer hint
	// "esc to interrupt" rather than the live status "esc interrupt".
	return !familyBEscToInterruptHint.MatchString(text)
}
