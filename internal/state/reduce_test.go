package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/classifier"
	"github.com/groveterm/grove/internal/config"
)

func newTestState() AppState {
	return New(config.Default())
}

func withAgent(s AppState, id string, status AgentStatus) AppState {
	s.Agents[id] = &Agent{ID: id, PaneSession: "grove-" + id, Status: status}
	s.Order = append(s.Order, id)
	return s
}

func TestReduce_CreateAgentEmitsProvisionEffect(t *testing.T) {
	s := newTestState()
	s, effects := Reduce(s, action.NewCreateAgentAction("widget", "widget-branch", "", ""))
	assert.Empty(t, s.Agents)
	assert.Len(t, effects, 1)
	assert.Equal(t, EffectProvisionAgent, effects[0].Kind)
	assert.Equal(t, "widget", effects[0].Name)
	assert.Equal(t, "widget-branch", effects[0].Branch)
	assert.NotEmpty(t, effects[0].AgentID)
}

func TestReduce_CreateAgentCompleteAddsAgentAndSelectsIt(t *testing.T) {
	s := newTestState()
	complete := action.NewCreateAgentCompleteAction("a1", "widget", "widget-branch", "", "", "/tmp/wt/a1", "grove-a1", true, "")
	s, effects := Reduce(s, complete)
	assert.Nil(t, effects)
	assert.Len(t, s.Agents, 1)
	assert.Equal(t, "widget", s.Agents["a1"].Name)
	assert.Equal(t, AgentIdle, s.Agents["a1"].Status)
	assert.Equal(t, []string{"a1"}, s.Order)
	assert.Equal(t, 0, s.Selected)
}

func TestReduce_CreateAgentCompleteFailureTurnsIntoToastNotAgent(t *testing.T) {
	s := newTestState()
	complete := action.NewCreateAgentCompleteAction("a1", "widget", "widget-branch", "", "", "", "", false, "worktree already exists")
	s, effects := Reduce(s, complete)
	assert.Nil(t, effects)
	assert.Empty(t, s.Agents)
	assert.NotNil(t, s.Toast)
	assert.Equal(t, action.ToastError, s.Toast.Level)
	assert.Equal(t, "worktree already exists", s.Toast.Message)
}

func TestReduce_DeleteAgentUnknownIDIsNoop(t *testing.T) {
	s := newTestState()
	s, effects := Reduce(s, action.NewDeleteAgentAction("ghost"))
	assert.Nil(t, effects)
	assert.Empty(t, s.Agents)
}

func TestReduce_DeleteAgentCompleteRemovesRegardlessOfSuccess(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	s, _ = Reduce(s, action.NewDeleteAgentCompleteAction("a1", false, "tmux kill-session failed"))
	assert.Empty(t, s.Agents)
	assert.Empty(t, s.Order)
	assert.NotNil(t, s.Toast)
	assert.Equal(t, action.ToastWarning, s.Toast.Level)
}

func TestReduce_PauseThenResumeProtocol(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentRunning)

	s, effects := Reduce(s, action.NewPauseAgentAction("a1"))
	assert.Len(t, effects, 1)
	assert.Equal(t, EffectPauseAgent, effects[0].Kind)
	assert.Equal(t, AgentRunning, s.Agents["a1"].Status, "status only flips on the completion action")

	s, _ = Reduce(s, action.NewPauseAgentCompleteAction("a1", true, ""))
	assert.Equal(t, AgentPaused, s.Agents["a1"].Status)

	s, effects = Reduce(s, action.NewResumeAgentAction("a1"))
	assert.Len(t, effects, 1)
	assert.Equal(t, EffectResumeAgent, effects[0].Kind)

	s, _ = Reduce(s, action.NewResumeAgentCompleteAction("a1", true, ""))
	assert.Equal(t, AgentIdle, s.Agents["a1"].Status)
}

func TestReduce_PauseAgentAlreadyPausedIsNoop(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentPaused)
	s, effects := Reduce(s, action.NewPauseAgentAction("a1"))
	assert.Nil(t, effects)
	assert.Equal(t, AgentPaused, s.Agents["a1"].Status)
}

func TestReduce_PausedAgentAbsorbsStatusObservations(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentPaused)
	detection := classifier.StatusDetection{Status: classifier.StatusRunning, Reason: "spinner"}
	s, effects := Reduce(s, action.NewUpdateAgentStatusAction("a1", detection))
	assert.Nil(t, effects)
	assert.Equal(t, AgentPaused, s.Agents["a1"].Status, "paused agents ignore classifier observations until resumed")
}

func TestReduce_UpdateAgentStatusAppliesWhenNotPaused(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	detection := classifier.StatusDetection{Status: classifier.StatusAwaitingInput, Reason: "question mark"}
	s, _ = Reduce(s, action.NewUpdateAgentStatusAction("a1", detection))
	assert.Equal(t, AgentAwaitingInput, s.Agents["a1"].Status)
	assert.Nil(t, s.Agents["a1"].StatusReason, "reason only populated when Debug is enabled")
}

func TestReduce_UpdateAgentStatusRecordsReasonInDebugMode(t *testing.T) {
	s := newTestState()
	s.Debug = true
	s = withAgent(s, "a1", AgentIdle)
	detection := classifier.StatusDetection{Status: classifier.StatusError, Reason: "traceback detected", Pattern: "Traceback"}
	s, _ = Reduce(s, action.NewUpdateAgentStatusAction("a1", detection))
	assert.NotNil(t, s.Agents["a1"].StatusReason)
	assert.Equal(t, "traceback detected", s.Agents["a1"].StatusReason.Reason)
}

func TestReduce_ChecklistProgressClampsDoneToTotal(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentRunning)
	progress := classifier.ChecklistProgress{Completed: 7, Total: 5}
	s, _ = Reduce(s, action.NewUpdateChecklistProgressAction("a1", progress))
	assert.Equal(t, uint32(5), s.Agents["a1"].ChecklistDone)
	assert.Equal(t, uint32(5), s.Agents["a1"].ChecklistTotal)
}

func TestReduce_SelectNextWrapsAround(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	s = withAgent(s, "a2", AgentIdle)
	s.Selected = 1

	s, _ = Reduce(s, action.NewSelectNextAction())
	assert.Equal(t, 0, s.Selected)

	s, _ = Reduce(s, action.NewSelectPreviousAction())
	assert.Equal(t, 1, s.Selected)
}

func TestReduce_SelectOnEmptyOrderIsNoop(t *testing.T) {
	s := newTestState()
	s, _ = Reduce(s, action.NewSelectNextAction())
	assert.Equal(t, 0, s.Selected)
}

func TestReduce_AttachToAgentNeverMutatesStateOnlyEmitsEffect(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	before := *s.Agents["a1"]

	s, effects := Reduce(s, action.NewAttachToAgentAction("a1"))
	assert.Len(t, effects, 1)
	assert.Equal(t, EffectAttachAgent, effects[0].Kind)
	assert.Equal(t, before, *s.Agents["a1"])
}

func TestReduce_RequestSummarySetsFlagAndEmitsSendKeys(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	s, effects := Reduce(s, action.NewRequestSummaryAction("a1"))
	assert.True(t, s.Agents["a1"].SummaryRequested)
	assert.Len(t, effects, 1)
	assert.Equal(t, EffectSendKeys, effects[0].Kind)
}

func TestReduce_EnterSubmitExitInputModeRoundTrip(t *testing.T) {
	s := newTestState()
	s = withAgent(s, "a1", AgentIdle)
	mode := action.InputMode{Kind: action.InputModeTextPrompt, Prompt: "branch name", AgentID: "a1"}
	s, _ = Reduce(s, action.NewEnterInputModeAction(mode))
	assert.Equal(t, action.InputModeTextPrompt, s.Input.Kind)

	s, _ = Reduce(s, action.NewUpdateInputAction("fix-flaky-test"))
	assert.Equal(t, "fix-flaky-test", s.Input.Buffer)

	s, effects := Reduce(s, action.NewSubmitInputAction())
	assert.Equal(t, action.InputModeNone, s.Input.Kind)
	assert.Len(t, effects, 1)
	assert.Equal(t, "fix-flaky-test", effects[0].Text)

	s, _ = Reduce(s, action.NewExitInputModeAction())
	assert.Equal(t, action.InputModeNone, s.Input.Kind)
}

func TestReduce_ShowToastThenClearError(t *testing.T) {
	s := newTestState()
	s, _ = Reduce(s, action.NewShowToastAction("connection lost", action.ToastError))
	assert.NotNil(t, s.Toast)

	s, _ = Reduce(s, action.NewClearErrorAction())
	assert.Nil(t, s.Toast)
}

func TestReduce_ClearErrorLeavesNonErrorToastAlone(t *testing.T) {
	s := newTestState()
	s, _ = Reduce(s, action.NewShowToastAction("branch pushed", action.ToastInfo))
	s, _ = Reduce(s, action.NewClearErrorAction())
	assert.NotNil(t, s.Toast)
}

func TestReduce_QuitSetsQuittingFlag(t *testing.T) {
	s := newTestState()
	s, _ = Reduce(s, action.NewQuitAction())
	assert.True(t, s.Quitting)
}
