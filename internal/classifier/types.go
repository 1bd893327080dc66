// Package classifier implements the Status Classifier: a pure
// function from a pane capture, its foreground process, and the agent's
// configured family to a StatusDetection. It performs no I/O and never
// blocks; the only state is the package-level regex catalogs compiled once
// at init().
package classifier

import "strings"

// Status is the semantic state the classifier infers for an agent on a
// single poll.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusAwaitingInput
	StatusCompleted
	StatusError
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusAwaitingInput:
		return "awaiting_input"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Family identifies which agent's UI conventions a capture should be parsed
// against.
type Family int

const (
	FamilyA Family = iota // Claude Code-like
	FamilyB                // Opencode-like
	FamilyC                // Codex-like
	FamilyD                // Gemini-like
)

// familyNames maps the configuration keys used in AgentsConfig.Families
// onto the Family this
// package classifies against.
var familyNames = map[string]Family{
	"claude":   FamilyA,
	"opencode": FamilyB,
	"codex":    FamilyC,
	"gemini":   FamilyD,
}

// FamilyFromName resolves a configured agent family key to a Family,
// defaulting to FamilyA for an unrecognized name rather than failing:
// an agent still gets classified, just against the most common rule pack.
func FamilyFromName(name string) Family {
	if f, ok := familyNames[name]; ok {
		return f
	}
	return FamilyA
}

// ForegroundKind classifies the pane's current foreground process, used as
// the ground-truth gate ahead of the family rule packs.
type ForegroundKind int

const (
	ForegroundAgentRunning ForegroundKind = iota
	ForegroundShell
	ForegroundOther
	ForegroundUnknown
)

// ForegroundProcess is the classified foreground process name for a pane.
type ForegroundProcess struct {
	Kind   ForegroundKind
	Family Family  // valid only when Kind == ForegroundAgentRunning
	Name   string  // raw command name, valid when Kind == ForegroundOther
}

// agentProcessNames lists the binary names recognized as "the agent itself"
// per family, mirroring the original detector's per-AiAgent process list.
var agentProcessNames = map[Family][]string{
	FamilyA: {"claude", "node", "npx"},
	FamilyB: {"opencode", "node", "npx"},
	FamilyC: {"codex"},
	FamilyD: {"gemini", "node"},
}

var shellNames = map[string]bool{
	"bash": true, "zsh": true, "sh": true, "fish": true, "dash": true,
}

// ClassifyForeground turns a raw tmux pane_current_command value into a
// ForegroundProcess for the given agent family.
func ClassifyForeground(cmd string, family Family) ForegroundProcess {
	if cmd == "" {
		return ForegroundProcess{Kind: ForegroundUnknown}
	}
	binary := strings.ToLower(cmd)
	if idx := strings.LastIndexByte(binary, '/'); idx >= 0 {
		binary = binary[idx+1:]
	}
	for _, name := range agentProcessNames[family] {
		if binary == name {
			return ForegroundProcess{Kind: ForegroundAgentRunning, Family: family}
		}
	}
	if shellNames[binary] {
		return ForegroundProcess{Kind: ForegroundShell}
	}
	return ForegroundProcess{Kind: ForegroundOther, Name: binary}
}

// StatusDetection is the classifier's output.
type StatusDetection struct {
	Status  Status
	Reason  string // human-readable explanation, empty if not set
	Pattern string // tag naming which rule matched, empty if not set
}

func detected(status Status) StatusDetection {
	return StatusDetection{Status: status}
}

func (d StatusDetection) withReason(reason string) StatusDetection {
	d.Reason = reason
	return d
}

func (d StatusDetection) withPattern(pattern string) StatusDetection {
	d.Pattern = pattern
	return d
}

// ChecklistProgress is the classifier's checklist-progress output.
type ChecklistProgress struct {
	Completed uint32
	Total     uint32
}
