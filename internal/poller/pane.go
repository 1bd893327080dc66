package poller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/groveterm/grove/internal/action"
	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/classifier"
	"github.com/groveterm/grove/internal/config"
	"github.com/groveterm/grove/internal/log"
	"github.com/groveterm/grove/internal/pane"
	"github.com/groveterm/grove/internal/state"
)

// paneCaptureLines is the joined scrollback depth the classifier runs
// against every round.
const paneCaptureLines = 100

// deepRescanLines is the scrollback depth used for the periodic deeper URL
// rescan.
const deepRescanLines = 500

// PanePoller is the hardest-working of the four pollers: every
// round it refreshes the selected agent's plain preview first, then
// classifies every live, non-paused agent's pane and emits the resulting
// status, activity, and checklist observations, with an occasional deeper
// rescan for agents still missing a remote-change URL.
type PanePoller struct {
	pane      pane.Controller
	submitter Submitter
	reader    StateReader
	cfg       config.PollingConfig

	lastHash map[string]string
	round    int
}

// NewPanePoller constructs a PanePoller.
func NewPanePoller(paneCtl pane.Controller, submitter Submitter, reader StateReader, cfg config.PollingConfig) *PanePoller {
	return &PanePoller{pane: paneCtl, submitter: submitter, reader: reader, cfg: cfg, lastHash: make(map[string]string)}
}

// Run drives poll rounds at cfg.PaneInterval until ctx is canceled.
func (p *PanePoller) Run(ctx context.Context) {
	interval := p.cfg.PaneInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.round++
			p.pollRound()
		}
	}
}

func (p *PanePoller) pollRound() {
	span := startRoundSpan("pane", p.round)
	defer span.End()

	snap := p.reader.State()

	// Step 1: the selected agent's preview refreshes first and
	// unconditionally, even if every other step below fails.
	if selected := snap.SelectedAgent(); selected != nil {
		p.capturePreview(selected)
	}

	for _, id := range snap.Order {
		agent := snap.Agents[id]
		if agent == nil || agent.Status == state.AgentPaused {
			continue
		}
		p.pollAgent(agent)
	}
}

func (p *PanePoller) capturePreview(agent *state.Agent) {
	defer recoverStage("preview", agent.ID)

	content, err := p.pane.Capture(agent.PaneSession, pane.CaptureOptions{JoinWrapped: true})
	if err != nil {
		log.Warn(log.CatPoller, "preview capture failed", "agentID", agent.ID, "error", err.Error())
		return
	}
	p.submitter.Submit(action.NewUpdatePreviewContentAction(agent.ID, content))
}

func (p *PanePoller) pollAgent(agent *state.Agent) {
	defer recoverStage("pane", agent.ID)

	capture, err := p.pane.Capture(agent.PaneSession, pane.CaptureOptions{HistoryLines: paneCaptureLines, JoinWrapped: true})
	if err != nil {
		log.Warn(log.CatPoller, "pane capture failed", "agentID", agent.ID, "error", err.Error())
		return
	}

	fgCmd, err := p.pane.ForegroundCommand(agent.PaneSession)
	if err != nil {
		log.Warn(log.CatPoller, "foreground query failed", "agentID", agent.ID, "error", err.Error())
	}

	family := classifier.FamilyFromName(agent.Family)
	fg := classifier.ClassifyForeground(fgCmd, family)

	detection := p.classifySafe(agent.ID, capture, fg, family)
	p.submitter.Submit(action.NewUpdateAgentStatusAction(agent.ID, detection))

	hash := hashCapture(capture)
	prev, known := p.lastHash[agent.ID]
	p.lastHash[agent.ID] = hash
	p.submitter.Submit(action.NewRecordActivityAction(agent.ID, known && hash != prev, hash))

	if progress, ok := p.detectChecklistSafe(agent.ID, capture, family); ok {
		p.submitter.Submit(action.NewUpdateChecklistProgressAction(agent.ID, progress))
	}

	if mr, ok := classifier.ExtractURL(capture); ok {
		p.submitter.Submit(action.NewUpdateRemoteChangeStatusAction(agent.ID, adapter.ChangeStatus{Kind: adapter.ChangeOpen, ID: mr.IID, URL: mr.URL}))
		return
	}

	p.maybeDeepRescan(agent)
}

// maybeDeepRescan retries URL extraction against a deeper scrollback
// buffer every URLRescanRounds rounds, for agents that still have no known
// remote-change URL.
func (p *PanePoller) maybeDeepRescan(agent *state.Agent) {
	if agent.RemoteChangeStatus.URL != "" {
		return
	}
	rescanEvery := p.cfg.URLRescanRounds
	if rescanEvery <= 0 {
		rescanEvery = 20
	}
	if p.round%rescanEvery != 0 {
		return
	}

	deep, err := p.pane.Capture(agent.PaneSession, pane.CaptureOptions{HistoryLines: deepRescanLines, JoinWrapped: true})
	if err != nil {
		log.Warn(log.CatPoller, "deep rescan capture failed", "agentID", agent.ID, "error", err.Error())
		return
	}
	if mr, ok := classifier.ExtractURL(deep); ok {
		p.submitter.Submit(action.NewUpdateRemoteChangeStatusAction(agent.ID, adapter.ChangeStatus{Kind: adapter.ChangeOpen, ID: mr.IID, URL: mr.URL}))
	}
}

// classifySafe guards the call site against a classifier panic: a
// malformed capture falls through to a fallback classification instead of
// bringing down the poller.
func (p *PanePoller) classifySafe(agentID, capture string, fg classifier.ForegroundProcess, family classifier.Family) (result classifier.StatusDetection) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatClassifier, "classifier panic recovered", "agentID", agentID, "panic", r)
			result = classifier.StatusDetection{Status: classifier.StatusIdle, Reason: "classifier panic recovered"}
		}
	}()
	return classifier.Classify(capture, fg, family)
}

func (p *PanePoller) detectChecklistSafe(agentID, capture string, family classifier.Family) (progress classifier.ChecklistProgress, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatClassifier, "checklist detector panic recovered", "agentID", agentID, "panic", r)
			progress, ok = classifier.ChecklistProgress{}, false
		}
	}()
	return classifier.DetectChecklist(capture, family)
}

// hashCapture fingerprints a pane capture for activity detection. SHA-256
// over the raw (unstripped) capture is cheap and collision-resistant
// enough for "did the screen change".
func hashCapture(capture string) string {
	sum := sha256.Sum256([]byte(capture))
	return hex.EncodeToString(sum[:])
}
