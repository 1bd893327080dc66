// Package poller implements the supervisor's four periodic producers: the
// pane poller, the system-metrics poller, the remote-change poller, and
// the external-task poller. Every poller only ever produces Actions; none
// of them touch AppState directly. Each poller reads its own cheap,
// lag-tolerant projection of AppState by calling StateReader.State() at
// its own cadence rather than blocking on the Action Loop: latest value
// wins, missed intermediate values are acceptable.
package poller

import (
	"context"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/log"
	"github.com/groveterm/grove/internal/orchestration/tracing"
	"github.com/groveterm/grove/internal/state"
)

// tracer resolves against the global provider cmd wires up at startup; a
// no-op tracer when tracing is disabled.
var tracer = otel.Tracer("grove/pollers")

// startRoundSpan opens a span for one poll round of the named poller.
func startRoundSpan(name string, round int) trace.Span {
	_, span := tracer.Start(context.Background(), tracing.SpanPrefixPoller+name,
		trace.WithAttributes(
			attribute.String(tracing.AttrPollerName, name),
			attribute.Int(tracing.AttrPollerRound, round),
		))
	return span
}

// Submitter enqueues an Action onto the Action Loop's queue without
// blocking. *loop.Loop satisfies this; pollers depend on the interface
// rather than the concrete type so they can be tested with a fake.
type Submitter interface {
	Submit(act action.Action) bool
}

// StateReader exposes a read-only snapshot of AppState for a poller to
// decide what to poll next (e.g. which agents are live, which is selected).
// *loop.Loop satisfies this via its RWMutex-guarded State() accessor.
type StateReader interface {
	State() state.AppState
}

// recoverStage is deferred around one unit of per-item poller work (one
// agent's capture, one adapter call). A panic there is logged with its
// stack and swallowed so one bad capture never stops the rest of the
// round.
func recoverStage(stage, agentID string) {
	if r := recover(); r != nil {
		log.Error(log.CatPoller, "poller stage panic recovered",
			"stage", stage, "agentID", agentID, "panic", r, "stack", string(debug.Stack()))
	}
}
