package classifier

import (
	"regexp"
	"strings"
)

// detectFamilyD implements the Gemini-like rule pack:
// action-required/waiting-for-confirmation banners, the "(esc to cancel,
// Ns)" timer, and numbered questions suppressed once numbered answers are
// visible in the last 20 lines.
func detectFamilyD(clean string) StatusDetection {
	ls := lines(clean)
	if len(ls) == 0 {
		return detected(StatusStopped).withReason("no output captured")
	}

	last5 := lastNNonEmpty(ls, 5)
	last5Lower := strings.ToLower(joinLines(last5))
	last20 := lastN(ls, 20)

	if familyDActionRequired.MatchString(clean) {
		return detected(StatusAwaitingInput).withReason("action required").withPattern("GEMINI_ACTION_REQUIRED")
	}
	if familyDWaitingConfirmation.MatchString(clean) {
		return detected(StatusAwaitingInput).withReason("waiting for confirmation").withPattern("GEMINI_WAITING_CONFIRMATION")
	}
	if familyDAnswerQuestions.MatchString(clean) {
		return detected(StatusAwaitingInput).withReason("answer the questions").withPattern("GEMINI_ANSWER_QUESTIONS")
	}
	if familyDKeyboardHints.MatchString(clean) {
		return detected(StatusAwaitingInput).withReason("keyboard hint").withPattern("GEMINI_KEYBOARD_HINTS")
	}

	if familyDEscCancelTimer.MatchString(clean) {
		return detected(StatusRunning).withReason("cancel timer").withPattern("GEMINI_ESC_CANCEL_TIMER")
	}
	if familyDDotsSpinner.MatchString(last5Lower) {
		return detected(StatusRunning).withReason("dots spinner").withPattern("GEMINI_DOTS_SPINNER")
	}
	if spinnerChars.MatchString(last5Lower) {
		return detected(StatusRunning).withReason("spinner glyph").withPattern("SPINNER_CHARS")
	}

	// Numbered questions, suppressed once the user's numbered answers are
	// visible: once Gemini renders "1. answer text" the original question
	// prompt has already been responded to.
	if !familyDNumberedAnswers.MatchString(joinLines(last20)) {
		if ln, ok := firstMatchingLine([]*regexp.Regexp{familyDNumberedQuestions}, ls); ok {
			return detected(StatusAwaitingInput).withReason(snippet(ln)).withPattern("GEMINI_NUMBERED_QUESTIONS")
		}
	}

	if anyMatch(familyDConfirmationPatterns, last5Lower) {
		return detected(StatusAwaitingInput).withReason("confirmation prompt").withPattern("GEMINI_CONFIRMATION_PATTERNS")
	}
	if anyMatch(questionPatterns, last5Lower) {
		return detected(StatusAwaitingInput).withReason("question/permission prompt").withPattern("QUESTION_PATTERNS")
	}

	if ln, ok := firstMatchingLine(errorPatterns, ls); ok {
		return detected(StatusError).withReason(snippet(ln)).withPattern("ERROR_PATTERNS")
	}

	if atGeminiPromptLine(last5) {
		last10 := lastN(ls, 10)
		if anyMatch(completionPatterns, joinLines(last10)) {
			return detected(StatusCompleted).withReason("completion marker at prompt").withPattern("COMPLETION_PATTERNS")
		}
		return detected(StatusIdle).withReason("at prompt")
	}

	return unresolved
}

// atGeminiPromptLine matches a last line that starts with an AI prompt glyph
// (">", "›", "❯"), with or without text after it. Unlike Families A/C,
// Gemini's rule carries no ≤3-char length constraint on the line.
func atGeminiPromptLine(last5 []string) bool {
	if len(last5) == 0 {
		return false
	}
	ln := strings.TrimSpace(last5[len(last5)-1])
	return ln == ">" || ln == "›" || ln == "❯" ||
		strings.HasPrefix(ln, ">") || strings.HasPrefix(ln, "›") || strings.HasPrefix(ln, "❯")
}
