package action

// PushBranchAction, MergeMainAction, and RequestSummaryAction all resolve
// to a send_keys call on the named agent's pane; the reducer never
// performs the work itself, only records state and emits the side effect.

type PushBranchAction struct {
	Base
	AgentID string
}

func NewPushBranchAction(agentID string) PushBranchAction {
	return PushBranchAction{Base: NewBase(TypePushBranch), AgentID: agentID}
}

type MergeMainAction struct {
	Base
	AgentID string
}

func NewMergeMainAction(agentID string) MergeMainAction {
	return MergeMainAction{Base: NewBase(TypeMergeMain), AgentID: agentID}
}

type RequestSummaryAction struct {
	Base
	AgentID string
}

func NewRequestSummaryAction(agentID string) RequestSummaryAction {
	return RequestSummaryAction{Base: NewBase(TypeRequestSummary), AgentID: agentID}
}

// AssignExternalTaskAction, CycleTaskStatusAction, and
// OpenExternalResourceAction delegate to adapters; results come back as
// further Actions.

type AssignExternalTaskAction struct {
	Base
	AgentID string
	TaskID  string
}

func NewAssignExternalTaskAction(agentID, taskID string) AssignExternalTaskAction {
	return AssignExternalTaskAction{Base: NewBase(TypeAssignExternalTask), AgentID: agentID, TaskID: taskID}
}

type CycleTaskStatusAction struct {
	Base
	AgentID string
}

func NewCycleTaskStatusAction(agentID string) CycleTaskStatusAction {
	return CycleTaskStatusAction{Base: NewBase(TypeCycleTaskStatus), AgentID: agentID}
}

type OpenExternalResourceAction struct {
	Base
	URL string
}

func NewOpenExternalResourceAction(url string) OpenExternalResourceAction {
	return OpenExternalResourceAction{Base: NewBase(TypeOpenExternalResource), URL: url}
}
