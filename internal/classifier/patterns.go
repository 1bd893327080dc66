package classifier

import "regexp"

// All regex packs below are compiled once at package init and never
// rebuilt at runtime; a pattern that fails to compile fails the process
// at startup instead of at classification time.

// Shared across families.
var (
	spinnerChars = regexp.MustCompile(`[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏◐◓◑◒⣾⣽⣻⢿⡿⣟⣯⣷]`)

	questionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(y/n\)`),
		regexp.MustCompile(`\[y/N\]`),
		regexp.MustCompile(`(?i)Allow\s*(this|once|always)?\s*\?`),
		regexp.MustCompile(`❯\s*\d+\.`),
		regexp.MustCompile(`(?i)do you want to`),
		regexp.MustCompile(`(?i)would you like`),
	}

	errorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[✗✘❌]\s`),
		regexp.MustCompile(`(?m)^Error:`),
		regexp.MustCompile(`(?m)^ERROR:`),
		regexp.MustCompile(`panicked at`),
		regexp.MustCompile(`FAILED`),
	}

	completionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[✓✔☑]\s`),
		regexp.MustCompile(`(?i)done\.?$`),
		regexp.MustCompile(`(?i)task complete`),
	}

	// shellPromptLine matches a short shell-style prompt on its own line.
	shellPromptLine = regexp.MustCompile(`^\s*(\$|#)\s|^(\$|#)\s*$|^➜`)

	// atPromptGlyph matches a short line ending in a bare shell/AI prompt
	// glyph.
	atPromptGlyph = regexp.MustCompile(`^\s*[>›❯]\s*$`)
)

// Family A (Claude Code-like).
var (
	familyAToolActivity = regexp.MustCompile(`(?m)^\s*⏺\s*(Read|Write|Edit|Bash|Glob|Grep|Task|WebFetch|WebSearch)\b`)
	familyAGerundVerb   = regexp.MustCompile(`(?m)^\s*(Reading|Writing|Editing|Running|Searching|Fetching|Exploring|Thinking|Analyzing)\b`)
)

// Family B (Opencode-like).
var (
	familyBDotRun              = regexp.MustCompile(`\.{4,}`)
	familyBSpinner             = regexp.MustCompile(`[⣾⣽⣻⢿⡿⣟⣯⣷⠁⠃⠇⡇⡏⡟⡿⣿⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏]`)
	familyBPermissionRequired  = regexp.MustCompile(`(?i)permission required`)
	familyBEscInterrupt        = regexp.MustCompile(`esc interrupt`)
	familyBEscToInterruptHint  = regexp.MustCompile(`esc to interrupt`)
)

// Family C (Codex-like). The working timer is matched against the
// lowercased full capture.
var familyCWorkingTimer = regexp.MustCompile(`•\s*working\s*\(\d+s`)

// Family D (Gemini-like).
var (
	familyDActionRequired        = regexp.MustCompile(`(?i)action\s+required`)
	familyDWaitingConfirmation   = regexp.MustCompile(`(?i)waiting\s+for\s+confirmation`)
	familyDAnswerQuestions       = regexp.MustCompile(`(?i)answer\s+the\s+question`)
	familyDKeyboardHints         = regexp.MustCompile(`(?i)press\s+enter\s+to|ctrl\+c\s+to\s+quit`)
	familyDEscCancelTimer        = regexp.MustCompile(`\(esc\s+to\s+cancel,?\s*\d+s`)
	familyDDotsSpinner           = regexp.MustCompile(`\.\.\.`)
	familyDNumberedQuestions     = regexp.MustCompile(`(?m)^\s*\d+\.\s+.+\?\s*$`)
	familyDNumberedAnswers       = regexp.MustCompile(`(?m)^\s*[1-4]\.\s+[^?]+$`)
	familyDConfirmationPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)confirm\?`),
		regexp.MustCompile(`(?i)proceed\?`),
	}
)

// Checklist detection.
var (
	checklistSummary        = regexp.MustCompile(`(\d+)\s+tasks?\s*\((\d+)\s+done`)
	checklistCollapsedTotal = regexp.MustCompile(`\+(\d+)\s+completed`)
)

const sidePanelWidth = 60

// mrURLPattern matches a forge merge-request URL and captures its iid.
// Deliberately MR-shaped rather than any-URL: pane output is full of doc
// links and pasted URLs that are not the agent's change.
var mrURLPattern = regexp.MustCompile(`https://[^/]+/[^/]+/[^/]+/-/merge_requests/(\d+)`)
