package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
)

// Reduce applies a single Action to AppState and returns the resulting
// state plus any Effects the loop's dispatcher should carry out. Reduce is
// pure: for the same (AppState, Action) pair it always returns the same
// result, and it never blocks or performs I/O.
//
// Per the reducer's failure policy, Reduce never returns an error: a
// reference to an agent that no longer exists is logged by the caller and
// turned into a toast, not a panic or an aborted loop.
func Reduce(s AppState, a action.Action) (AppState, []Effect) {
	switch act := a.(type) {
	case action.SelectNextAction:
		return reduceSelect(s, 1), nil
	case action.SelectPreviousAction:
		return reduceSelect(s, -1), nil
	case action.SelectFirstAction:
		s.Selected = 0
		s.ClampSelection()
		return s, nil
	case action.SelectLastAction:
		s.Selected = len(s.Order) - 1
		s.ClampSelection()
		return s, nil

	case action.CreateAgentAction:
		return reduceCreateAgent(s, act)
	case action.CreateAgentCompleteAction:
		return reduceCreateAgentComplete(s, act)
	case action.DeleteAgentAction:
		return reduceDeleteAgent(s, act)
	case action.DeleteAgentCompleteAction:
		return reduceDeleteAgentComplete(s, act)
	case action.PauseAgentAction:
		return reducePauseAgent(s, act)
	case action.PauseAgentCompleteAction:
		return reducePauseAgentComplete(s, act)
	case action.ResumeAgentAction:
		return reduceResumeAgent(s, act)
	case action.ResumeAgentCompleteAction:
		return reduceResumeAgentComplete(s, act)
	case action.AttachToAgentAction:
		return reduceAttachToAgent(s, act)

	case action.UpdateAgentStatusAction:
		return reduceUpdateAgentStatus(s, act), nil
	case action.UpdateChecklistProgressAction:
		return reduceUpdateChecklistProgress(s, act), nil
	case action.UpdateRemoteChangeStatusAction:
		if agent := s.Agents[act.AgentID]; agent != nil {
			agent.RemoteChangeStatus = act.Status
			agent.UpdatedAt = act.CreatedAt()
		}
		return s, nil
	case action.UpdateExternalTaskStatusAction:
		if agent := s.Agents[act.AgentID]; agent != nil {
			agent.ExternalTaskStatus = act.Task
			agent.UpdatedAt = act.CreatedAt()
		}
		return s, nil
	case action.RecordActivityAction:
		if agent := s.Agents[act.AgentID]; agent != nil {
			agent.pushActivity(act.HadActivity)
			agent.LastOutputHash = act.Hash
		}
		return s, nil
	case action.UpdatePreviewContentAction:
		if agent := s.Agents[act.AgentID]; agent != nil {
			agent.PreviewContent = act.Content
		}
		return s, nil
	case action.UpdateGlobalSystemMetricsAction:
		s.Metrics = SystemMetrics{CPUPercent: act.CPUPercent, MemPercent: act.MemPercent, SampledAt: act.CreatedAt()}
		return s, nil

	case action.PushBranchAction:
		return s, sendKeysEffect(s, act.AgentID, "push_branch")
	case action.MergeMainAction:
		return s, sendKeysEffect(s, act.AgentID, "merge_main")
	case action.RequestSummaryAction:
		if agent := s.Agents[act.AgentID]; agent != nil {
			agent.SummaryRequested = true
		}
		return s, sendKeysEffect(s, act.AgentID, "request_summary")

	case action.AssignExternalTaskAction:
		return s, []Effect{{Kind: EffectAssignExternalTask, AgentID: act.AgentID, TaskID: act.TaskID}}
	case action.CycleTaskStatusAction:
		taskID := ""
		if agent := s.Agents[act.AgentID]; agent != nil {
			taskID = agent.ExternalTaskStatus.ID
		}
		return s, []Effect{{Kind: EffectCycleTaskStatus, AgentID: act.AgentID, TaskID: taskID}}
	case action.OpenExternalResourceAction:
		return s, []Effect{{Kind: EffectOpenURL, URL: act.URL}}

	case action.EnterInputModeAction:
		s.Input = InputMode{Kind: act.Mode.Kind, Prompt: act.Mode.Prompt, AgentID: act.Mode.AgentID}
		return s, nil
	case action.UpdateInputAction:
		s.Input.Buffer = act.Text
		return s, nil
	case action.SubmitInputAction:
		return reduceSubmitInput(s)
	case action.ExitInputModeAction:
		s.Input = InputMode{Kind: action.InputModeNone}
		return s, nil

	case action.TickAction:
		return s, nil
	case action.QuitAction:
		s.Quitting = true
		return s, nil
	case action.ShowToastAction:
		s.Toast = &Toast{Message: act.Message, Level: act.Level, Expiry: act.CreatedAt().Add(toastDuration)}
		return s, nil
	case action.ClearErrorAction:
		if s.Toast != nil && s.Toast.Level == action.ToastError {
			s.Toast = nil
		}
		return s, nil
	}
	return s, nil
}

const toastDuration = 4 * time.Second

func reduceSelect(s AppState, delta int) AppState {
	if len(s.Order) == 0 {
		return s
	}
	s.Selected = (s.Selected + delta + len(s.Order)) % len(s.Order)
	return s
}

func reduceCreateAgent(s AppState, act action.CreateAgentAction) (AppState, []Effect) {
	id := uuid.New().String()
	return s, []Effect{{Kind: EffectProvisionAgent, AgentID: id, Name: act.Name, Branch: act.Branch, Family: act.Family, TaskID: act.TaskID}}
}

func reduceCreateAgentComplete(s AppState, act action.CreateAgentCompleteAction) (AppState, []Effect) {
	if !act.Success {
		return toast(s, act.Message, action.ToastError, act.CreatedAt()), nil
	}
	now := act.CreatedAt()
	agent := &Agent{
		ID:           act.AgentID,
		Name:         act.Name,
		Branch:       act.Branch,
		Family:       act.Family,
		WorktreePath: act.WorktreePath,
		PaneSession:  act.PaneSession,
		Status:       AgentIdle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if act.TaskID != "" {
		// Seeded with just the id; the external-task poller fills in
		// Title/Status/URL on its next round.
		agent.ExternalTaskStatus = adapter.TaskRecord{ID: act.TaskID}
	}
	if _, exists := s.Agents[act.AgentID]; !exists {
		s.Order = append(s.Order, act.AgentID)
	}
	s.Agents[act.AgentID] = agent
	s.Selected = len(s.Order) - 1
	return s, nil
}

func reduceDeleteAgent(s AppState, act action.DeleteAgentAction) (AppState, []Effect) {
	agent := s.Agents[act.AgentID]
	if agent == nil {
		return s, nil
	}
	return s, []Effect{{Kind: EffectTeardownAgent, AgentID: agent.ID, WorktreePath: agent.WorktreePath, PaneSession: agent.PaneSession}}
}

func reduceDeleteAgentComplete(s AppState, act action.DeleteAgentCompleteAction) (AppState, []Effect) {
	if !act.Success {
		s = toast(s, act.Message, action.ToastWarning, act.CreatedAt())
	}
	delete(s.Agents, act.AgentID)
	for i, id := range s.Order {
		if id == act.AgentID {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
	s.ClampSelection()
	return s, nil
}

func reducePauseAgent(s AppState, act action.PauseAgentAction) (AppState, []Effect) {
	agent := s.Agents[act.AgentID]
	if agent == nil || agent.Status == AgentPaused {
		return s, nil
	}
	return s, []Effect{{Kind: EffectPauseAgent, AgentID: agent.ID, PaneSession: agent.PaneSession, WorktreePath: agent.WorktreePath}}
}

func reducePauseAgentComplete(s AppState, act action.PauseAgentCompleteAction) (AppState, []Effect) {
	if !act.Success {
		return toast(s, act.Message, action.ToastError, act.CreatedAt()), nil
	}
	if agent := s.Agents[act.AgentID]; agent != nil {
		agent.Status = AgentPaused
		agent.UpdatedAt = act.CreatedAt()
	}
	return s, nil
}

func reduceResumeAgent(s AppState, act action.ResumeAgentAction) (AppState, []Effect) {
	agent := s.Agents[act.AgentID]
	if agent == nil || agent.Status != AgentPaused {
		return s, nil
	}
	return s, []Effect{{
		Kind:         EffectResumeAgent,
		AgentID:      agent.ID,
		Name:         agent.Name,
		Branch:       agent.Branch,
		Family:       agent.Family,
		PaneSession:  agent.PaneSession,
		WorktreePath: agent.WorktreePath,
	}}
}

func reduceResumeAgentComplete(s AppState, act action.ResumeAgentCompleteAction) (AppState, []Effect) {
	if !act.Success {
		return toast(s, act.Message, action.ToastError, act.CreatedAt()), nil
	}
	if agent := s.Agents[act.AgentID]; agent != nil {
		agent.Status = AgentIdle
		agent.UpdatedAt = act.CreatedAt()
	}
	return s, nil
}

// reduceAttachToAgent never mutates AppState: the attach itself is handled
// outside the reducer (teardown UI, blocking attach, restore UI), triggered
// by the loop observing this Effect.
func reduceAttachToAgent(s AppState, act action.AttachToAgentAction) (AppState, []Effect) {
	agent := s.Agents[act.AgentID]
	if agent == nil {
		return s, nil
	}
	return s, []Effect{{Kind: EffectAttachAgent, AgentID: agent.ID, PaneSession: agent.PaneSession}}
}

// reduceUpdateAgentStatus applies an observation unless the agent is
// Paused, which absorbs incoming observations until explicitly resumed.
func reduceUpdateAgentStatus(s AppState, act action.UpdateAgentStatusAction) AppState {
	agent := s.Agents[act.AgentID]
	if agent == nil || agent.Status == AgentPaused {
		return s
	}
	agent.Status = FromClassifierStatus(act.Status)
	agent.UpdatedAt = act.CreatedAt()
	if s.Debug {
		agent.StatusReason = &StatusReason{Status: agent.Status, Reason: act.Reason, Pattern: act.Pattern, Timestamp: act.CreatedAt()}
	}
	return s
}

// reduceUpdateChecklistProgress enforces the done <= total invariant by
// clamping rather than rejecting the observation.
func reduceUpdateChecklistProgress(s AppState, act action.UpdateChecklistProgressAction) AppState {
	agent := s.Agents[act.AgentID]
	if agent == nil {
		return s
	}
	done, total := act.Completed, act.Total
	if done > total {
		done = total
	}
	agent.ChecklistDone, agent.ChecklistTotal = done, total
	return s
}

func reduceSubmitInput(s AppState) (AppState, []Effect) {
	mode := s.Input
	s.Input = InputMode{Kind: action.InputModeNone}
	switch mode.Kind {
	case action.InputModeTextPrompt:
		return s, []Effect{{Kind: EffectSendKeys, AgentID: mode.AgentID, Text: mode.Buffer}}
	default:
		return s, nil
	}
}

// sendKeysEffect emits a symbolic send-keys request; text names which
// templated command the loop's pane.Controller should type (e.g.
// "push_branch"), not literal keystrokes. The reducer stays agnostic of
// the actual shell commands, which live with the rest of the pane-control
// wiring.
func sendKeysEffect(s AppState, agentID, text string) []Effect {
	agent := s.Agents[agentID]
	if agent == nil {
		return nil
	}
	return []Effect{{Kind: EffectSendKeys, AgentID: agentID, PaneSession: agent.PaneSession, Text: text}}
}

// toast attaches a transient message to s. at is the triggering action's
// creation time, keeping Reduce deterministic for a given (state, action)
// pair.
func toast(s AppState, message string, level action.ToastLevel, at time.Time) AppState {
	s.Toast = &Toast{Message: message, Level: level, Expiry: at.Add(toastDuration)}
	return s
}
