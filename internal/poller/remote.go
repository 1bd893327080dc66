package poller

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/log"
)

// adapterCallTimeout bounds a single remote-change or external-task adapter
// call; the adapter's own HTTP client carries its own finer-grained
// timeouts, this
// is the poller-side backstop so one hung request cannot delay a whole
// round indefinitely.
const adapterCallTimeout = 15 * time.Second

// errorBackoff is how long an agent is left out of adapter polling after a
// failed call, so a provider that is down (auth failure, rate limit) is not
// hammered on every cadence tick.
const errorBackoff = 2 * time.Minute

// newBackoffCache builds the TTL cache both adapter pollers use to park
// failing agents, keyed by agent id.
func newBackoffCache() *gocache.Cache {
	return gocache.New(errorBackoff, errorBackoff)
}

// RemoteChangePoller queries a RemoteChangeAdapter for every live agent's
// branch on a fixed cadence.
type RemoteChangePoller struct {
	adapter   adapter.RemoteChangeAdapter
	submitter Submitter
	reader    StateReader
	interval  time.Duration
	backoff   *gocache.Cache
}

// NewRemoteChangePoller constructs a RemoteChangePoller. a may be nil, in
// which case Run returns immediately: an unconfigured provider disables
// the poller.
func NewRemoteChangePoller(a adapter.RemoteChangeAdapter, submitter Submitter, reader StateReader, interval time.Duration) *RemoteChangePoller {
	return &RemoteChangePoller{
		adapter:   a,
		submitter: submitter,
		reader:    reader,
		interval:  interval,
		backoff:   newBackoffCache(),
	}
}

// Run polls on r.interval until ctx is canceled. A no-op if the adapter is
// nil or reports itself unconfigured.
func (r *RemoteChangePoller) Run(ctx context.Context) {
	if r.adapter == nil || !r.adapter.IsConfigured() {
		return
	}
	interval := r.interval
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
			r.pollRound(ctx)
		}
	}
}

func (r *RemoteChangePoller) pollRound(ctx context.Context) {
	snap := r.reader.State()
	for _, id := range snap.Order {
		agent := snap.Agents[id]
		if agent == nil || agent.Branch == "" {
			continue
		}
		if _, parked := r.backoff.Get(agent.ID); parked {
			continue
		}
		r.pollOne(ctx, agent.ID, agent.Branch)
	}
}

func (r *RemoteChangePoller) pollOne(ctx context.Context, agentID, branch string) {
	defer recoverStage("remote_change", agentID)

	cctx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()

	status := r.adapter.GetChangeForBranch(cctx, branch)
	// Emit only on non-null results. ChangeNone means the
	// adapter has nothing to report yet (no open change for this branch),
	// which is not itself newsworthy.
	if status.Kind == adapter.ChangeNone {
		return
	}
	if status.Kind == adapter.ChangeError {
		log.Warn(log.CatAdapter, "remote change fetch failed", "agentID", agentID, "branch", branch, "error", status.Message)
		r.backoff.SetDefault(agentID, struct{}{})
	}
	r.submitter.Submit(action.NewUpdateRemoteChangeStatusAction(agentID, status))
}
