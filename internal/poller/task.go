package poller

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/log"
)

// ExternalTaskPoller queries an ExternalTaskAdapter for every agent's
// linked task id on a fixed cadence, one poller per configured provider.
type ExternalTaskPoller struct {
	adapter   adapter.ExternalTaskAdapter
	submitter Submitter
	reader    StateReader
	interval  time.Duration
	backoff   *gocache.Cache
}

// NewExternalTaskPoller constructs an ExternalTaskPoller. a may be nil, in
// which case Run returns immediately: an unconfigured provider disables
// the poller.
func NewExternalTaskPoller(a adapter.ExternalTaskAdapter, submitter Submitter, reader StateReader, interval time.Duration) *ExternalTaskPoller {
	return &ExternalTaskPoller{
		adapter:   a,
		submitter: submitter,
		reader:    reader,
		interval:  interval,
		backoff:   newBackoffCache(),
	}
}

// Run polls on e.interval until ctx is canceled. A no-op if the adapter is
// nil or reports itself unconfigured.
func (e *ExternalTaskPoller) Run(ctx context.Context) {
	if e.adapter == nil || !e.adapter.IsConfigured() {
		return
	}
	interval := e.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollRound(ctx)
		}
	}
}

func (e *ExternalTaskPoller) pollRound(ctx context.Context) {
	snap := e.reader.State()
	for _, id := range snap.Order {
		agent := snap.Agents[id]
		if agent == nil || agent.ExternalTaskStatus.ID == "" {
			continue
		}
		if _, parked := e.backoff.Get(agent.ID); parked {
			continue
		}
		e.pollOne(ctx, agent.ID, agent.ExternalTaskStatus.ID)
	}
}

func (e *ExternalTaskPoller) pollOne(ctx context.Context, agentID, taskID string) {
	defer recoverStage("external_task", agentID)

	cctx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()

	task, err := e.adapter.GetTask(cctx, taskID)
	if err != nil {
		log.Warn(log.CatAdapter, "external task fetch failed", "agentID", agentID, "taskID", taskID, "error", err.Error())
		e.backoff.SetDefault(agentID, struct{}{})
		task = adapter.TaskRecord{ID: taskID, Error: err.Error()}
	}
	e.submitter.Submit(action.NewUpdateExternalTaskStatusAction(agentID, task))
}
