// Package state holds the Action Loop's root AppState and the pure Reduce
// function. Reduce never performs I/O: it only computes a
// new AppState plus zero or more Effects describing work a background task
// should perform, which come back into the loop as further Actions.
package state

import (
	"time"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/classifier"
	"github.com/groveterm/grove/internal/config"
)

// AgentStatus extends classifier.Status with the commanded Paused state,
// which the classifier never produces: Paused overrides observation.
type AgentStatus int

const (
	AgentStopped AgentStatus = iota
	AgentIdle
	AgentRunning
	AgentAwaitingInput
	AgentCompleted
	AgentError
	AgentPaused
)

func (s AgentStatus) String() string {
	switch s {
	case AgentIdle:
		return "idle"
	case AgentRunning:
		return "running"
	case AgentAwaitingInput:
		return "awaiting_input"
	case AgentCompleted:
		return "completed"
	case AgentError:
		return "error"
	case AgentPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// ParseAgentStatus recovers an AgentStatus from its String() form, used when
// loading a persisted snapshot. Unrecognized or empty values fall back to
// AgentStopped rather than failing the load, per the snapshot's
// tolerant-of-unknown-fields contract.
func ParseAgentStatus(s string) AgentStatus {
	switch s {
	case "idle":
		return AgentIdle
	case "running":
		return AgentRunning
	case "awaiting_input":
		return AgentAwaitingInput
	case "completed":
		return AgentCompleted
	case "error":
		return AgentError
	case "paused":
		return AgentPaused
	default:
		return AgentStopped
	}
}

// FromClassifierStatus maps an observed classifier.Status onto AgentStatus.
func FromClassifierStatus(s classifier.Status) AgentStatus {
	switch s {
	case classifier.StatusIdle:
		return AgentIdle
	case classifier.StatusRunning:
		return AgentRunning
	case classifier.StatusAwaitingInput:
		return AgentAwaitingInput
	case classifier.StatusCompleted:
		return AgentCompleted
	case classifier.StatusError:
		return AgentError
	default:
		return AgentStopped
	}
}

// StatusReason is a debug-mode-only diagnostic attached to a status
// transition.
type StatusReason struct {
	Status    AgentStatus
	Reason    string
	Pattern   string
	Timestamp time.Time
}

// activityWindowSize bounds the ring of "changed vs previous capture" flags
// used to render animated activity.
const activityWindowSize = 8

// Agent is the primary entity.
type Agent struct {
	ID           string
	Name         string
	Branch       string
	Family       string // configured agent family key, e.g. "claude"
	WorktreePath string
	PaneSession  string

	Status       AgentStatus
	StatusReason *StatusReason // nil unless debug mode populated it

	LastOutputHash string
	ActivityWindow []bool

	CustomNote string

	// PreviewContent is the most recent plain-text pane capture, refreshed
	// ahead of all other poller work when this agent is selected.
	PreviewContent string

	ChecklistDone  uint32
	ChecklistTotal uint32

	RemoteChangeStatus adapter.ChangeStatus
	ExternalTaskStatus adapter.TaskRecord

	SummaryRequested bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Agent) pushActivity(hadActivity bool) {
	a.ActivityWindow = append(a.ActivityWindow, hadActivity)
	if len(a.ActivityWindow) > activityWindowSize {
		a.ActivityWindow = a.ActivityWindow[len(a.ActivityWindow)-activityWindowSize:]
	}
}

// Toast is a transient user-facing message with an expiry. Level reuses
// action.ToastLevel so ShowToastAction's payload carries over unchanged.
type Toast struct {
	Message string
	Level   action.ToastLevel
	Expiry  time.Time
}

// InputMode mirrors action.InputMode plus the growing text buffer, which
// only AppState needs to track (the action only ever carries the mode a
// caller is entering, never the buffer accumulated since).
type InputMode struct {
	Kind    action.InputModeKind
	Prompt  string
	AgentID string
	Buffer  string
}

// SystemMetrics is the most recent global CPU/memory sample.
type SystemMetrics struct {
	CPUPercent float64
	MemPercent float64
	SampledAt  time.Time
}

// AppState is the reducer's root.
type AppState struct {
	Agents   map[string]*Agent
	Order    []string // insertion order, preserved for display
	Selected int       // index into Order, bounded

	Input InputMode
	Toast *Toast

	LogRing []string

	Metrics SystemMetrics

	Config config.Config

	Debug    bool
	Quitting bool
}

const logRingSize = 200

// New constructs an empty AppState for cfg.
func New(cfg config.Config) AppState {
	return AppState{
		Agents:  make(map[string]*Agent),
		Order:   nil,
		Input:   InputMode{Kind: action.InputModeNone},
		LogRing: nil,
		Config:  cfg,
		Debug:   cfg.Debug,
	}
}

// SelectedAgent returns the currently selected agent, or nil if there is
// none (empty Order).
func (s AppState) SelectedAgent() *Agent {
	if s.Selected < 0 || s.Selected >= len(s.Order) {
		return nil
	}
	return s.Agents[s.Order[s.Selected]]
}

// ClampSelection bounds Selected to a valid index into Order, used both
// by the reducer and by snapshot.Restore when rehydrating AppState.
func (s *AppState) ClampSelection() {
	if len(s.Order) == 0 {
		s.Selected = 0
		return
	}
	if s.Selected < 0 {
		s.Selected = 0
	}
	if s.Selected >= len(s.Order) {
		s.Selected = len(s.Order) - 1
	}
}

func (s *AppState) appendLog(line string) {
	s.LogRing = append(s.LogRing, line)
	if len(s.LogRing) > logRingSize {
		s.LogRing = s.LogRing[len(s.LogRing)-logRingSize:]
	}
}
