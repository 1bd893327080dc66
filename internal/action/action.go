// Package action defines the Action taxonomy consumed by the Action Loop's
// reducer. Every Action is an explicit intent entering the
// supervisor: a keypress translated by the key-to-action mapper, a poller
// observation, or a background task's completion signal. The reducer
// consumes Actions strictly in FIFO order; Actions never carry behavior,
// only data.
package action

import (
	"time"

	"github.com/google/uuid"
)

// Action is the interface every concrete action type implements.
type Action interface {
	// ID returns a unique identifier for this action instance, useful for
	// tracing a single capture's derived actions through one reducer tick.
	ID() string
	// Type returns the action's type for reducer dispatch.
	Type() Type
	// CreatedAt returns when the action was constructed.
	CreatedAt() time.Time
}

// Type identifies the kind of Action for reducer routing.
type Type string

const (
	// Navigation
	TypeSelectNext     Type = "select_next"
	TypeSelectPrevious Type = "select_previous"
	TypeSelectFirst    Type = "select_first"
	TypeSelectLast     Type = "select_last"

	// Agent lifecycle
	TypeCreateAgent   Type = "create_agent"
	TypeDeleteAgent   Type = "delete_agent"
	TypePauseAgent    Type = "pause_agent"
	TypeResumeAgent   Type = "resume_agent"
	TypeAttachToAgent Type = "attach_to_agent"

	// Observation ingestion
	TypeUpdateAgentStatus        Type = "update_agent_status"
	TypeUpdateChecklistProgress  Type = "update_checklist_progress"
	TypeUpdateRemoteChangeStatus Type = "update_remote_change_status"
	TypeUpdateExternalTaskStatus Type = "update_external_task_status"
	TypeRecordActivity           Type = "record_activity"
	TypeUpdatePreviewContent     Type = "update_preview_content"
	TypeUpdateGlobalSystemMetrics Type = "update_global_system_metrics"

	// User -> agent messaging
	TypePushBranch     Type = "push_branch"
	TypeMergeMain      Type = "merge_main"
	TypeRequestSummary Type = "request_summary"

	// Task/PR interactions
	TypeAssignExternalTask   Type = "assign_external_task"
	TypeCycleTaskStatus      Type = "cycle_task_status"
	TypeOpenExternalResource Type = "open_external_resource"

	// Input modes
	TypeEnterInputMode Type = "enter_input_mode"
	TypeUpdateInput    Type = "update_input"
	TypeSubmitInput    Type = "submit_input"
	TypeExitInputMode  Type = "exit_input_mode"

	// Background completions
	TypeCreateAgentComplete Type = "create_agent_complete"
	TypeDeleteAgentComplete Type = "delete_agent_complete"
	TypePauseAgentComplete  Type = "pause_agent_complete"
	TypeResumeAgentComplete Type = "resume_agent_complete"

	// Misc
	TypeTick       Type = "tick"
	TypeQuit       Type = "quit"
	TypeShowToast  Type = "show_toast"
	TypeClearError Type = "clear_error"
)

// Base provides the common ID/Type/CreatedAt fields for concrete action
// types to embed.
type Base struct {
	id         string
	actionType Type
	createdAt  time.Time
}

// NewBase creates a Base with a generated id and the current timestamp.
func NewBase(t Type) Base {
	return Base{id: uuid.New().String(), actionType: t, createdAt: time.Now()}
}

func (b Base) ID() string           { return b.id }
func (b Base) Type() Type           { return b.actionType }
func (b Base) CreatedAt() time.Time { return b.createdAt }
