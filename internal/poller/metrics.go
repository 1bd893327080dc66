package poller

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/log"
)

// MetricsPoller samples global CPU and memory utilization on a fixed
// cadence.
type MetricsPoller struct {
	submitter Submitter
	interval  time.Duration
}

// NewMetricsPoller constructs a MetricsPoller sampling every interval.
func NewMetricsPoller(submitter Submitter, interval time.Duration) *MetricsPoller {
	return &MetricsPoller{submitter: submitter, interval: interval}
}

// Run samples on cfg.MetricsInterval until ctx is canceled.
func (m *MetricsPoller) Run(ctx context.Context) {
	interval := m.interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample reads one CPU/memory snapshot. cpu.PercentWithContext(ctx, 0, ...)
// with a zero interval returns the delta-since-last-call percentage
// non-blockingly, which is why this is safe to call every tick without
// stalling the poller goroutine.
func (m *MetricsPoller) sample(ctx context.Context) {
	defer recoverStage("metrics", "")

	var cpuPercent float64
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		log.Warn(log.CatPoller, "cpu sample failed", "error", err.Error())
	} else if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memPercent float64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warn(log.CatPoller, "memory sample failed", "error", err.Error())
	} else {
		memPercent = vm.UsedPercent
	}

	m.submitter.Submit(action.NewUpdateGlobalSystemMetricsAction(cpuPercent, memPercent))
}
