package classifier

// unresolvedStatus is a sentinel meaning "no family-specific rule (1-8)
// matched"; Classify then applies the shared, foreground-aware tail rules
// (9-10) before returning.
const unresolvedStatus Status = -1

var unresolved = StatusDetection{Status: unresolvedStatus}

// Classify is the Status Classifier's entry point: given a
// recent pane capture, the pane's foreground process, and the agent's
// configured family, it returns a single StatusDetection. It performs no
// I/O, allocates no goroutines, and never panics on malformed input;
// input that no family rule matches falls through to applyTailRules, whose
// fallback always returns a status with a reason.
func Classify(capture string, fg ForegroundProcess, family Family) StatusDetection {
	clean := stripANSI(capture)

	// Ground-truth gate: a shell foreground means the
	// agent is not running at all, regardless of what text is on screen.
	if fg.Kind == ForegroundShell {
		ls := lines(clean)
		if ln, ok := firstMatchingLine(errorPatterns, lastN(ls, 15)); ok {
			return detected(StatusError).withReason(snippet(ln)).withPattern("ERROR_PATTERNS")
		}
		return detected(StatusIdle).withReason("foreground is shell")
	}

	// An unrecognized child process is presumed to be agent-spawned work
	// (e.g. a build or test command) unless an input prompt or error is
	// visible, which still takes precedence.
	if fg.Kind == ForegroundOther {
		ls := lines(clean)
		last5 := lastNNonEmpty(ls, 5)
		if anyMatch(questionPatterns, joinLines(last5)) {
			return detected(StatusAwaitingInput).withReason("question/permission prompt").withPattern("QUESTION_PATTERNS")
		}
		if ln, ok := firstMatchingLine(errorPatterns, lastN(ls, 15)); ok {
			return detected(StatusError).withReason(snippet(ln)).withPattern("ERROR_PATTERNS")
		}
		return detected(StatusRunning).withReason("foreground is subprocess: " + fg.Name)
	}

	// fg.Kind is ForegroundAgentRunning or ForegroundUnknown: run the
	// family-specific rule pack, resolved against family (Unknown falls
	// back to the configured family).
	result := dispatchFamily(clean, family)
	if result.Status != unresolvedStatus {
		return result
	}

	return applyTailRules(clean, fg)
}

func dispatchFamily(clean string, family Family) StatusDetection {
	switch family {
	case FamilyA:
		return detectFamilyA(clean)
	case FamilyB:
		return detectFamilyB(clean)
	case FamilyC:
		return detectFamilyC(clean)
	case FamilyD:
		return detectFamilyD(clean)
	default:
		return detectFamilyA(clean)
	}
}

// applyTailRules implements the shared rules 9-10: a
// shell-like prompt on the last line means the agent has exited to a shell
// (Stopped), unless the foreground process is still the agent itself, in
// which case the text is stale output and the agent is Idle. Absent either
// signal, fall back on the foreground classification alone.
func applyTailRules(clean string, fg ForegroundProcess) StatusDetection {
	ls := lines(clean)
	isAgent := fg.Kind == ForegroundAgentRunning

	if len(ls) > 0 && shellPromptLine.MatchString(ls[len(ls)-1]) {
		if isAgent {
			return detected(StatusIdle).withReason("shell prompt text, agent still foreground")
		}
		return detected(StatusStopped).withReason("shell prompt")
	}

	if isAgent {
		return detected(StatusIdle).withReason("fallback: agent foreground")
	}
	if fg.Kind == ForegroundUnknown {
		if len(clean) > 0 {
			return detected(StatusRunning).withReason("fallback: unknown foreground, non-empty capture")
		}
		return detected(StatusStopped).withReason("fallback: unknown foreground, empty capture")
	}
	return detected(StatusStopped).withReason("fallback")
}
