package tracing

// Span attribute keys for supervisor tracing. These are the semantic
// conventions shared by the action loop and the pollers so traces can be
// filtered per agent, per action type, or per poller.
const (
	// Action attributes
	AttrActionID   = "action.id"
	AttrActionType = "action.type"

	// Agent attributes
	AttrAgentID     = "agent.id"
	AttrAgentStatus = "agent.status"
	AttrAgentBranch = "agent.branch"

	// Pane attributes
	AttrPaneSession = "pane.session"

	// Poller attributes
	AttrPollerName  = "poller.name"
	AttrPollerRound = "poller.round"

	// Effect attributes
	AttrEffectKind = "effect.kind"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixAction = "action.apply."
	SpanPrefixEffect = "effect."
	SpanPrefixPoller = "poller.round."
)

// Event names for span events.
const (
	EventSnapshotSaved  = "snapshot.saved"
	EventEffectSpawned  = "effect.spawned"
	EventActionDropped  = "action.dropped"
	EventErrorOccurred  = "error.occurred"
	EventAttachEntered  = "attach.entered"
	EventAttachReturned = "attach.returned"
)
