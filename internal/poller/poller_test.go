package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/config"
	"github.com/groveterm/grove/internal/pane"
	"github.com/groveterm/grove/internal/state"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	actions []action.Action
}

func (f *fakeSubmitter) Submit(act action.Action) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, act)
	return true
}

func (f *fakeSubmitter) ofType(t action.Type) []action.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []action.Action
	for _, a := range f.actions {
		if a.Type() == t {
			out = append(out, a)
		}
	}
	return out
}

type fakeStateReader struct {
	s state.AppState
}

func (f fakeStateReader) State() state.AppState { return f.s }

type fakePaneController struct {
	mu          sync.Mutex
	captures    map[string][]string // sessionName -> successive captures to return
	captureIdx  map[string]int
	foreground  map[string]string
	captureErrs map[string]error
}

func newFakePaneController() *fakePaneController {
	return &fakePaneController{
		captures:    make(map[string][]string),
		captureIdx:  make(map[string]int),
		foreground:  make(map[string]string),
		captureErrs: make(map[string]error),
	}
}

func (f *fakePaneController) Create(string, string, string) error { return nil }
func (f *fakePaneController) Exists(string) (bool, error)         { return true, nil }
func (f *fakePaneController) Kill(string) error                   { return nil }
func (f *fakePaneController) Attach(string) error                 { return nil }
func (f *fakePaneController) SendKeys(string, string) error       { return nil }

func (f *fakePaneController) Capture(sessionName string, _ pane.CaptureOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.captureErrs[sessionName]; err != nil {
		return "", err
	}
	seq := f.captures[sessionName]
	if len(seq) == 0 {
		return "", nil
	}
	idx := f.captureIdx[sessionName]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	f.captureIdx[sessionName] = idx + 1
	return seq[idx], nil
}

func (f *fakePaneController) ForegroundCommand(sessionName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foreground[sessionName], nil
}

func agentState(id, session, family string) state.AppState {
	s := state.New(config.Default())
	s.Agents[id] = &state.Agent{ID: id, PaneSession: session, Family: family, Status: state.AgentRunning}
	s.Order = []string{id}
	return s
}

func TestPanePoller_RefreshesSelectedPreviewEveryRound(t *testing.T) {
	ctl := newFakePaneController()
	ctl.captures["grove-a1"] = []string{"$ some output\n"}
	ctl.foreground["grove-a1"] = "bash"

	sub := &fakeSubmitter{}
	reader := fakeStateReader{s: agentState("a1", "grove-a1", "claude")}

	p := NewPanePoller(ctl, sub, reader, config.DefaultPollingConfig())
	p.pollRound()

	previews := sub.ofType(action.TypeUpdatePreviewContent)
	require.Len(t, previews, 1)
	assert.Equal(t, "a1", previews[0].(action.UpdatePreviewContentAction).AgentID)
}

func TestPanePoller_SkipsPausedAgents(t *testing.T) {
	ctl := newFakePaneController()
	sub := &fakeSubmitter{}
	s := state.New(config.Default())
	s.Agents["a1"] = &state.Agent{ID: "a1", PaneSession: "grove-a1", Status: state.AgentPaused}
	s.Order = []string{"a1"}
	s.Selected = -1 // no selection, so the preview step is also skipped

	p := NewPanePoller(ctl, sub, fakeStateReader{s: s}, config.DefaultPollingConfig())
	p.pollRound()

	assert.Empty(t, sub.ofType(action.TypeUpdateAgentStatus))
}

func TestPanePoller_RecordsActivityOnlyAfterFirstKnownHash(t *testing.T) {
	ctl := newFakePaneController()
	ctl.captures["grove-a1"] = []string{"first\n", "second\n"}
	ctl.foreground["grove-a1"] = "claude"

	sub := &fakeSubmitter{}
	reader := fakeStateReader{s: agentState("a1", "grove-a1", "claude")}
	p := NewPanePoller(ctl, sub, reader, config.DefaultPollingConfig())

	p.pollAgent(reader.s.Agents["a1"])
	p.pollAgent(reader.s.Agents["a1"])

	activities := sub.ofType(action.TypeRecordActivity)
	require.Len(t, activities, 2)
	assert.False(t, activities[0].(action.RecordActivityAction).HadActivity, "first round has no prior hash to compare against")
	assert.True(t, activities[1].(action.RecordActivityAction).HadActivity, "capture changed between rounds")
}

func TestPanePoller_CaptureFailureDoesNotStopRound(t *testing.T) {
	ctl := newFakePaneController()
	ctl.captureErrs["grove-a1"] = assertError("boom")

	sub := &fakeSubmitter{}
	reader := fakeStateReader{s: agentState("a1", "grove-a1", "claude")}
	p := NewPanePoller(ctl, sub, reader, config.DefaultPollingConfig())

	assert.NotPanics(t, func() { p.pollRound() })
	assert.Empty(t, sub.ofType(action.TypeUpdateAgentStatus))
}

type assertError string

func (e assertError) Error() string { return string(e) }

type fakeRemoteAdapter struct {
	configured bool
	status     adapter.ChangeStatus
	calls      int
}

func (f *fakeRemoteAdapter) IsConfigured() bool { return f.configured }
func (f *fakeRemoteAdapter) GetChangeForBranch(_ context.Context, _ string) adapter.ChangeStatus {
	f.calls++
	return f.status
}

func TestRemoteChangePoller_SkipsNullResults(t *testing.T) {
	a := &fakeRemoteAdapter{configured: true, status: adapter.ChangeStatus{Kind: adapter.ChangeNone}}
	sub := &fakeSubmitter{}
	s := state.New(config.Default())
	s.Agents["a1"] = &state.Agent{ID: "a1", Branch: "feature"}
	s.Order = []string{"a1"}

	p := NewRemoteChangePoller(a, sub, fakeStateReader{s: s}, time.Second)
	p.pollRound(context.Background())

	assert.Equal(t, 1, a.calls)
	assert.Empty(t, sub.ofType(action.TypeUpdateRemoteChangeStatus))
}

func TestRemoteChangePoller_EmitsOnNonNullResult(t *testing.T) {
	a := &fakeRemoteAdapter{configured: true, status: adapter.ChangeStatus{Kind: adapter.ChangeOpen, ID: 42, URL: "https://example.invalid/mr/42"}}
	sub := &fakeSubmitter{}
	s := state.New(config.Default())
	s.Agents["a1"] = &state.Agent{ID: "a1", Branch: "feature"}
	s.Order = []string{"a1"}

	p := NewRemoteChangePoller(a, sub, fakeStateReader{s: s}, time.Second)
	p.pollRound(context.Background())

	got := sub.ofType(action.TypeUpdateRemoteChangeStatus)
	require.Len(t, got, 1)
	assert.Equal(t, adapter.ChangeOpen, got[0].(action.UpdateRemoteChangeStatusAction).Status.Kind)
}

func TestRemoteChangePoller_ErrorParksAgentUntilBackoffExpires(t *testing.T) {
	a := &fakeRemoteAdapter{configured: true, status: adapter.ChangeStatus{Kind: adapter.ChangeError, Message: "401 unauthorized"}}
	sub := &fakeSubmitter{}
	s := state.New(config.Default())
	s.Agents["a1"] = &state.Agent{ID: "a1", Branch: "feature"}
	s.Order = []string{"a1"}

	p := NewRemoteChangePoller(a, sub, fakeStateReader{s: s}, time.Second)
	p.pollRound(context.Background())
	p.pollRound(context.Background())

	// The failing agent is parked after the first round, so the second
	// round does not re-query the provider.
	assert.Equal(t, 1, a.calls)
	assert.Len(t, sub.ofType(action.TypeUpdateRemoteChangeStatus), 1)
}

func TestRemoteChangePoller_DisabledAdapterNeverRuns(t *testing.T) {
	a := &fakeRemoteAdapter{configured: false}
	sub := &fakeSubmitter{}
	s := state.New(config.Default())
	p := NewRemoteChangePoller(a, sub, fakeStateReader{s: s}, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Equal(t, 0, a.calls)
}
