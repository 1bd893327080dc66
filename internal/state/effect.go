package state

// EffectKind tags the side effect a background task should perform. Reduce
// never performs I/O itself; it only describes the work and hands it back
// to the dispatcher rather than doing it inline.
type EffectKind string

const (
	EffectProvisionAgent     EffectKind = "provision_agent"
	EffectTeardownAgent      EffectKind = "teardown_agent"
	EffectPauseAgent         EffectKind = "pause_agent"
	EffectResumeAgent        EffectKind = "resume_agent"
	EffectAttachAgent        EffectKind = "attach_agent"
	EffectSendKeys           EffectKind = "send_keys"
	EffectAssignExternalTask EffectKind = "assign_external_task"
	EffectCycleTaskStatus    EffectKind = "cycle_task_status"
	EffectOpenURL            EffectKind = "open_url"
	EffectPersistSnapshot    EffectKind = "persist_snapshot"
)

// Effect is the reducer's sole means of requesting work outside itself. The
// loop's dispatcher switches on Kind and routes to the relevant component
// (workspace.Provisioner, pane.Controller, an adapter), then feeds the
// outcome back in as a *CompleteAction.
type Effect struct {
	Kind EffectKind

	AgentID string
	Name    string
	Branch  string
	Family  string
	TaskID  string

	WorktreePath string
	PaneSession  string

	Text string
	URL  string
}
