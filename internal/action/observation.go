package action

import (
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/classifier"
)

// UpdateAgentStatusAction carries one poll's worth of classifier output for
// a single agent.
type UpdateAgentStatusAction struct {
	Base
	AgentID string
	Status  classifier.Status
	Reason  string
	Pattern string
}

func NewUpdateAgentStatusAction(agentID string, d classifier.StatusDetection) UpdateAgentStatusAction {
	return UpdateAgentStatusAction{
		Base: NewBase(TypeUpdateAgentStatus), AgentID: agentID,
		Status: d.Status, Reason: d.Reason, Pattern: d.Pattern,
	}
}

// UpdateChecklistProgressAction carries the classifier's checklist count.
type UpdateChecklistProgressAction struct {
	Base
	AgentID   string
	Completed uint32
	Total     uint32
}

func NewUpdateChecklistProgressAction(agentID string, p classifier.ChecklistProgress) UpdateChecklistProgressAction {
	return UpdateChecklistProgressAction{Base: NewBase(TypeUpdateChecklistProgress), AgentID: agentID, Completed: p.Completed, Total: p.Total}
}

// UpdateRemoteChangeStatusAction carries a remote-change adapter poll result.
type UpdateRemoteChangeStatusAction struct {
	Base
	AgentID string
	Status  adapter.ChangeStatus
}

func NewUpdateRemoteChangeStatusAction(agentID string, status adapter.ChangeStatus) UpdateRemoteChangeStatusAction {
	return UpdateRemoteChangeStatusAction{Base: NewBase(TypeUpdateRemoteChangeStatus), AgentID: agentID, Status: status}
}

// UpdateExternalTaskStatusAction carries an external-task adapter poll result.
type UpdateExternalTaskStatusAction struct {
	Base
	AgentID string
	Task    adapter.TaskRecord
}

func NewUpdateExternalTaskStatusAction(agentID string, task adapter.TaskRecord) UpdateExternalTaskStatusAction {
	return UpdateExternalTaskStatusAction{Base: NewBase(TypeUpdateExternalTaskStatus), AgentID: agentID, Task: task}
}

// RecordActivityAction reports whether an agent's pane capture changed
// since the previous poll round, driving the activity-window ring. Hash is
// the new fingerprint of the capture regardless of whether it changed, so
// the reducer can store it for the next round's comparison.
type RecordActivityAction struct {
	Base
	AgentID     string
	HadActivity bool
	Hash        string
}

func NewRecordActivityAction(agentID string, hadActivity bool, hash string) RecordActivityAction {
	return RecordActivityAction{Base: NewBase(TypeRecordActivity), AgentID: agentID, HadActivity: hadActivity, Hash: hash}
}

// UpdatePreviewContentAction carries the selected agent's plain preview
// capture, refreshed ahead of all other per-round poller work.
type UpdatePreviewContentAction struct {
	Base
	AgentID string
	Content string
}

func NewUpdatePreviewContentAction(agentID, content string) UpdatePreviewContentAction {
	return UpdatePreviewContentAction{Base: NewBase(TypeUpdatePreviewContent), AgentID: agentID, Content: content}
}

// UpdateGlobalSystemMetricsAction carries one system-metrics poller sample.
type UpdateGlobalSystemMetricsAction struct {
	Base
	CPUPercent float64
	MemPercent float64
}

func NewUpdateGlobalSystemMetricsAction(cpu, mem float64) UpdateGlobalSystemMetricsAction {
	return UpdateGlobalSystemMetricsAction{Base: NewBase(TypeUpdateGlobalSystemMetrics), CPUPercent: cpu, MemPercent: mem}
}
