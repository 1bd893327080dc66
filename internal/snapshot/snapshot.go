// Package snapshot persists the session's agent roster to disk so a grove
// invocation against the same repository can resume where the last one
// left off. It is written on every explicit state-changing
// action and on clean exit, and read once at startup.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/groveterm/grove/internal/adapter"
	"github.com/groveterm/grove/internal/config"
	"github.com/groveterm/grove/internal/state"
)

// schemaVersion guards against loading a snapshot written by an
// incompatible future layout; unknown fields within a known version are
// ignored rather than rejected.
const schemaVersion = 1

// Document is the on-disk shape. It deliberately omits ActivityWindow,
// LastOutputHash, StatusReason, and PreviewContent: all four are derived
// fresh from the next pane poll and would be stale the instant they were
// read back.
type Document struct {
	Version  int            `yaml:"version"`
	Selected int            `yaml:"selected"`
	Agents   []AgentRecord  `yaml:"agents"`
}

// AgentRecord is one agent's persisted fields.
type AgentRecord struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Branch       string `yaml:"branch"`
	WorktreePath string `yaml:"worktree_path"`
	PaneSession  string `yaml:"pane_session"`
	Status       string `yaml:"status"`
	CustomNote   string `yaml:"custom_note,omitempty"`

	ChecklistDone  uint32 `yaml:"checklist_done"`
	ChecklistTotal uint32 `yaml:"checklist_total"`

	RemoteChangeStatus adapter.ChangeStatus `yaml:"remote_change_status"`
	ExternalTaskStatus adapter.TaskRecord   `yaml:"external_task_status"`

	SummaryRequested bool `yaml:"summary_requested"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Store persists and loads Documents for a single repository's sessions.
type Store struct {
	path string
}

// New returns a Store writing to baseDir/applicationName.yaml, one file
// per repository (baseDir defaults to ~/.grove/sessions, applicationName
// to the repository directory name).
func New(cfg config.SnapshotConfig) *Store {
	name := cfg.ApplicationName
	if name == "" {
		name = "default"
	}
	return &Store{path: filepath.Join(cfg.BaseDir, name+".yaml")}
}

// Save writes s to disk atomically (temp file + rename) so a crash
// mid-write can never leave a truncated snapshot behind.
func (st *Store) Save(s state.AppState) error {
	doc := toDocument(s)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot marshal: %w", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot mkdir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".grove-session.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("snapshot rename: %w", err)
	}
	return nil
}

// Load reads a previously saved Document, or returns a zero Document and
// no error if none exists yet (a fresh repository has no prior session).
func (st *Store) Load() (Document, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return Document{Version: schemaVersion}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("snapshot read: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("snapshot parse: %w", err)
	}
	return doc, nil
}

func toDocument(s state.AppState) Document {
	doc := Document{Version: schemaVersion, Selected: s.Selected}
	for _, id := range s.Order {
		agent := s.Agents[id]
		if agent == nil {
			continue
		}
		doc.Agents = append(doc.Agents, AgentRecord{
			ID:                 agent.ID,
			Name:               agent.Name,
			Branch:             agent.Branch,
			WorktreePath:       agent.WorktreePath,
			PaneSession:        agent.PaneSession,
			Status:             agent.Status.String(),
			CustomNote:         agent.CustomNote,
			ChecklistDone:      agent.ChecklistDone,
			ChecklistTotal:     agent.ChecklistTotal,
			RemoteChangeStatus: agent.RemoteChangeStatus,
			ExternalTaskStatus: agent.ExternalTaskStatus,
			SummaryRequested:   agent.SummaryRequested,
			CreatedAt:          agent.CreatedAt,
			UpdatedAt:          agent.UpdatedAt,
		})
	}
	return doc
}

// Restore converts a loaded Document into an AppState seeded with cfg,
// ready for the Action Loop to take over. Agents are restored with empty
// ActivityWindow/PreviewContent, which the next pane poll round fills in.
func Restore(doc Document, cfg config.Config) state.AppState {
	s := state.New(cfg)
	s.Selected = doc.Selected
	for _, rec := range doc.Agents {
		s.Agents[rec.ID] = &state.Agent{
			ID:                 rec.ID,
			Name:               rec.Name,
			Branch:             rec.Branch,
			WorktreePath:       rec.WorktreePath,
			PaneSession:        rec.PaneSession,
			Status:             state.ParseAgentStatus(rec.Status),
			CustomNote:         rec.CustomNote,
			ChecklistDone:      rec.ChecklistDone,
			ChecklistTotal:     rec.ChecklistTotal,
			RemoteChangeStatus: rec.RemoteChangeStatus,
			ExternalTaskStatus: rec.ExternalTaskStatus,
			SummaryRequested:   rec.SummaryRequested,
			CreatedAt:          rec.CreatedAt,
			UpdatedAt:          rec.UpdatedAt,
		}
		s.Order = append(s.Order, rec.ID)
	}
	s.ClampSelection()
	return s
}
