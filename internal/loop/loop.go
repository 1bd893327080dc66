// Package loop runs the Action Loop: a single-threaded FIFO dispatcher
// that owns AppState, feeds every Action through state.Reduce, and carries
// out the Effects that fall out the other side. The shape is a buffered
// channel queue, one goroutine draining it, and background tasks reporting
// their outcome back in as further Actions instead of mutating state
// themselves.
package loop

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

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
var tracer = otel.Tracer("grove/action-loop")

// DefaultQueueCapacity bounds the action queue.
const DefaultQueueCapacity = 1000

// UIHooks lets the hosting UI (not yet built) suspend and restore itself
// around a blocking attach: persist state, tear down the UI, attach
// (blocking), restore the UI, drain stale input. A nil UIHooks means
// attach runs with whatever stdio the process already has.
type UIHooks interface {
	Suspend() error
	Resume() error
}

// SnapshotWriter persists AppState after every state-changing action and
// on clean exit. Implemented by internal/snapshot; kept as an
// interface here so the loop does not depend on the concrete format.
type SnapshotWriter interface {
	Save(state.AppState) error
}

// effectExecutor carries out Effects. *Executor is the production
// implementation; tests supply a fake to exercise Loop's dispatch and
// bookkeeping without a real multiplexer or filesystem.
type effectExecutor interface {
	Execute(ctx context.Context, eff state.Effect) action.Action
	Attach(sessionName string) error
}

// Loop owns AppState and drains the action queue on a single goroutine.
type Loop struct {
	queue chan action.Action

	executor effectExecutor
	hooks    UIHooks
	snapshot SnapshotWriter

	mu    sync.RWMutex
	state state.AppState

	wg sync.WaitGroup
}

// New constructs a Loop seeded with initial state. executor carries out
// the Effects Reduce produces; hooks and snapshot may be nil.
func New(initial state.AppState, executor *Executor, hooks UIHooks, snapshot SnapshotWriter) *Loop {
	return newLoop(initial, executor, hooks, snapshot)
}

func newLoop(initial state.AppState, executor effectExecutor, hooks UIHooks, snapshot SnapshotWriter) *Loop {
	return &Loop{
		queue:    make(chan action.Action, DefaultQueueCapacity),
		executor: executor,
		hooks:    hooks,
		snapshot: snapshot,
		state:    initial,
	}
}

// Submit enqueues act without blocking. Returns false if the queue is
// full: a full action queue is logged and the action dropped, never
// allowed to stall pollers.
func (l *Loop) Submit(act action.Action) bool {
	select {
	case l.queue <- act:
		return true
	default:
		log.Warn(log.CatAction, "action queue full, dropping action", "type", string(act.Type()))
		return false
	}
}

// State returns a snapshot of the current AppState for read-only use by
// pollers deciding what to poll next (e.g. the selected agent's id).
func (l *Loop) State() state.AppState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Run drains the action queue until ctx is canceled or a QuitAction is
// processed. It blocks the calling goroutine.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return
		case act := <-l.queue:
			quit := l.process(ctx, act)
			if quit {
				l.wg.Wait()
				return
			}
		}
	}
}

func (l *Loop) process(ctx context.Context, act action.Action) (quit bool) {
	ctx, span := tracer.Start(ctx, tracing.SpanPrefixAction+string(act.Type()),
		trace.WithAttributes(
			attribute.String(tracing.AttrActionID, act.ID()),
			attribute.String(tracing.AttrActionType, string(act.Type())),
		))
	defer span.End()

	l.mu.Lock()
	next, effects := state.Reduce(l.state, act)
	l.state = next
	snap := l.state
	quit = l.state.Quitting
	l.mu.Unlock()

	if l.snapshot != nil && !isReadOnlyObservation(act) {
		if err := l.snapshot.Save(snap); err != nil {
			log.Warn(log.CatSnapshot, "snapshot save failed", "error", err.Error())
			span.AddEvent(tracing.EventErrorOccurred,
				trace.WithAttributes(attribute.String(tracing.AttrErrorMessage, err.Error())))
		} else {
			span.AddEvent(tracing.EventSnapshotSaved)
		}
	}

	for _, eff := range effects {
		span.AddEvent(tracing.EventEffectSpawned,
			trace.WithAttributes(attribute.String(tracing.AttrEffectKind, string(eff.Kind))))
		l.dispatchEffect(ctx, eff)
	}
	return quit
}

// isReadOnlyObservation reports whether act is frequent poller chatter that
// should not trigger a snapshot write on every single occurrence (pane
// content/activity updates happen several times a second).
func isReadOnlyObservation(act action.Action) bool {
	switch act.Type() {
	case action.TypeUpdatePreviewContent, action.TypeRecordActivity, action.TypeTick:
		return true
	default:
		return false
	}
}

// dispatchEffect carries out eff. EffectAttachAgent runs synchronously on
// the loop goroutine because it must own the terminal; every other effect
// runs on its own goroutine so a slow worktree clone or HTTP call never
// blocks the queue drain.
func (l *Loop) dispatchEffect(ctx context.Context, eff state.Effect) {
	if eff.Kind == state.EffectAttachAgent {
		l.runAttach(eff)
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer recoverPanic(eff)

		result := l.executor.Execute(ctx, eff)
		if result != nil {
			l.Submit(result)
		}
	}()
}

func (l *Loop) runAttach(eff state.Effect) {
	if l.hooks != nil {
		if err := l.hooks.Suspend(); err != nil {
			log.ErrorErr(log.CatAction, "ui suspend failed, skipping attach", err, "agentID", eff.AgentID)
			return
		}
	}

	if err := l.executor.Attach(eff.PaneSession); err != nil {
		log.ErrorErr(log.CatPane, "attach failed", err, "agentID", eff.AgentID, "session", eff.PaneSession)
	}

	if l.hooks != nil {
		if err := l.hooks.Resume(); err != nil {
			log.ErrorErr(log.CatAction, "ui resume failed", err, "agentID", eff.AgentID)
		}
	}
}

// recoverPanic logs a panic in one effect's background task with its
// stack trace; a misbehaving effect never brings down the loop.
func recoverPanic(eff state.Effect) {
	if r := recover(); r != nil {
		log.Error(log.CatAction, "effect panic recovered",
			"kind", string(eff.Kind),
			"agentID", eff.AgentID,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

// Ticker submits a TickAction on every interval until ctx is canceled. The
// Action Loop uses this to drive periodic UI refresh independent of
// poller cadence.
func Ticker(ctx context.Context, l *Loop, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Submit(action.NewTickAction())
		}
	}
}
