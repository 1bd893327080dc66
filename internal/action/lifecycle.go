package action

// CreateAgentAction requests a new agent be materialized: a worktree
// provisioned, a pane session started, and (on success) an Agent added to
// AppState.
type CreateAgentAction struct {
	Base
	Name   string
	Branch string
	TaskID string // empty if not linked to an external task
	Family string // configured agent family key; empty selects the configured default
}

func NewCreateAgentAction(name, branch, taskID, family string) CreateAgentAction {
	return CreateAgentAction{Base: NewBase(TypeCreateAgent), Name: name, Branch: branch, TaskID: taskID, Family: family}
}

// DeleteAgentAction tears down an agent unconditionally and best-effort.
type DeleteAgentAction struct {
	Base
	AgentID string
}

func NewDeleteAgentAction(agentID string) DeleteAgentAction {
	return DeleteAgentAction{Base: NewBase(TypeDeleteAgent), AgentID: agentID}
}

// PauseAgentAction runs the pause protocol.
type PauseAgentAction struct {
	Base
	AgentID string
}

func NewPauseAgentAction(agentID string) PauseAgentAction {
	return PauseAgentAction{Base: NewBase(TypePauseAgent), AgentID: agentID}
}

// ResumeAgentAction runs the resume protocol.
type ResumeAgentAction struct {
	Base
	AgentID string
}

func NewResumeAgentAction(agentID string) ResumeAgentAction {
	return ResumeAgentAction{Base: NewBase(TypeResumeAgent), AgentID: agentID}
}

// AttachToAgentAction is handled outside the reducer; it still flows
// through the queue so it is serialized with other Actions naming the
// same agent.
type AttachToAgentAction struct {
	Base
	AgentID string
}

func NewAttachToAgentAction(agentID string) AttachToAgentAction {
	return AttachToAgentAction{Base: NewBase(TypeAttachToAgent), AgentID: agentID}
}

// CreateAgentCompleteAction, DeleteAgentCompleteAction, PauseAgentCompleteAction,
// and ResumeAgentCompleteAction report the outcome of the corresponding
// background task back to the reducer.
type CreateAgentCompleteAction struct {
	Base
	AgentID      string
	Name         string
	Branch       string
	Family       string
	TaskID       string
	WorktreePath string
	PaneSession  string
	Success      bool
	Message      string
}

func NewCreateAgentCompleteAction(agentID, name, branch, family, taskID, worktreePath, paneSession string, success bool, message string) CreateAgentCompleteAction {
	return CreateAgentCompleteAction{
		Base: NewBase(TypeCreateAgentComplete), AgentID: agentID, Name: name, Branch: branch, Family: family, TaskID: taskID,
		WorktreePath: worktreePath, PaneSession: paneSession, Success: success, Message: message,
	}
}

type DeleteAgentCompleteAction struct {
	Base
	AgentID string
	Success bool
	Message string
}

func NewDeleteAgentCompleteAction(agentID string, success bool, message string) DeleteAgentCompleteAction {
	return DeleteAgentCompleteAction{Base: NewBase(TypeDeleteAgentComplete), AgentID: agentID, Success: success, Message: message}
}

type PauseAgentCompleteAction struct {
	Base
	AgentID string
	Success bool
	Message string
}

func NewPauseAgentCompleteAction(agentID string, success bool, message string) PauseAgentCompleteAction {
	return PauseAgentCompleteAction{Base: NewBase(TypePauseAgentComplete), AgentID: agentID, Success: success, Message: message}
}

type ResumeAgentCompleteAction struct {
	Base
	AgentID string
	Success bool
	Message string
}

func NewResumeAgentCompleteAction(agentID string, success bool, message string) ResumeAgentCompleteAction {
	return ResumeAgentCompleteAction{Base: NewBase(TypeResumeAgentComplete), AgentID: agentID, Success: success, Message: message}
}
