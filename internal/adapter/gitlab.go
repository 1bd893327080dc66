package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// defaultGitLabBaseURL is GitLab.com's public API root, used when
// Providers.RemoteChangeBaseURL is unset.
const defaultGitLabBaseURL = "https://gitlab.com/api/v4"

// gitlabPipelineResponse mirrors original_source/src/gitlab/types.rs's
// PipelineResponse: the head_pipeline fragment nested in a merge request
// response.
type gitlabPipelineResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

// gitlabMergeRequestListItem mirrors MergeRequestListItem: the minimal shape
// returned by the list endpoint (no head_pipeline).
type gitlabMergeRequestListItem struct {
	IID    int    `json:"iid"`
	WebURL string `json:"web_url"`
}

// gitlabMergeRequestResponse mirrors MergeRequestResponse: the full shape
// returned when fetching one merge request by iid.
type gitlabMergeRequestResponse struct {
	IID                  int                     `json:"iid"`
	State                string                  `json:"state"`
	WebURL               string                  `json:"web_url"`
	HasConflicts         bool                    `json:"has_conflicts"`
	Approved             *bool                   `json:"approved"`
	SourceBranch         string                  `json:"source_branch"`
	TargetBranch         string                  `json:"target_branch"`
	HeadPipeline         *gitlabPipelineResponse `json:"head_pipeline"`
	DetailedMergeStatus  *string                 `json:"detailed_merge_status"`
}

// gitlabPipelineFromStatus mirrors PipelineStatus::from_gitlab_status.
func gitlabPipelineFromStatus(status string) PipelineStatus {
	switch status {
	case "running":
		return PipelineRunning
	case "pending", "waiting_for_resource", "preparing", "created":
		return PipelinePending
	case "success":
		return PipelineSuccess
	case "failed":
		return PipelineFailed
	case "canceled":
		return PipelineCanceled
	case "skipped":
		return PipelineSkipped
	case "manual", "scheduled":
		return PipelineManual
	default:
		return PipelineNone
	}
}

// intoChangeStatus mirrors MergeRequestResponse::into_status's state
// machine: merged beats everything, then within an open MR conflicts beats
// needing a rebase beats already-approved beats plain open.
func (r gitlabMergeRequestResponse) intoChangeStatus() ChangeStatus {
	pipeline := PipelineNone
	if r.HeadPipeline != nil {
		pipeline = gitlabPipelineFromStatus(r.HeadPipeline.Status)
	}

	switch r.State {
	case "merged":
		return ChangeStatus{Kind: ChangeMerged, ID: r.IID, URL: r.WebURL, Pipeline: pipeline}
	case "opened":
		needsRebase := r.DetailedMergeStatus != nil && *r.DetailedMergeStatus == "need_rebase"
		approved := r.Approved != nil && *r.Approved

		switch {
		case r.HasConflicts:
			return ChangeStatus{Kind: ChangeConflicts, ID: r.IID, URL: r.WebURL, Pipeline: pipeline}
		case needsRebase:
			return ChangeStatus{Kind: ChangeNeedsRebase, ID: r.IID, URL: r.WebURL, Pipeline: pipeline}
		case approved:
			return ChangeStatus{Kind: ChangeApproved, ID: r.IID, URL: r.WebURL, Pipeline: pipeline}
		default:
			return ChangeStatus{Kind: ChangeOpen, ID: r.IID, URL: r.WebURL, Pipeline: pipeline}
		}
	default:
		return ChangeStatus{Kind: ChangeNone}
	}
}

// GitLabAdapter implements RemoteChangeAdapter against the GitLab REST API
// (merge requests filtered by source_branch), grounded on
// original_source/src/gitlab/types.rs's response shapes and status
// derivation.
type GitLabAdapter struct {
	baseURL   string
	projectID string
	token     string
	client    *http.Client
}

// NewGitLabAdapter constructs a GitLabAdapter. baseURL defaults to
// GitLab.com's API root when empty. An empty token or projectID yields an
// adapter that reports IsConfigured() == false.
func NewGitLabAdapter(baseURL, projectID, token string) *GitLabAdapter {
	if baseURL == "" {
		baseURL = defaultGitLabBaseURL
	}
	return &GitLabAdapter{
		baseURL:   baseURL,
		projectID: projectID,
		token:     token,
		client:    &http.Client{}, // callers bound each request via ctx
	}
}

// NewGitLabAdapterFromEnv builds a GitLabAdapter from a ProvidersConfig-style
// (baseURL, projectID) pair plus a token read from tokenEnv, the shape
// cmd/root.go wires adapters with.
func NewGitLabAdapterFromEnv(baseURL, projectID, tokenEnv string) *GitLabAdapter {
	return NewGitLabAdapter(baseURL, projectID, os.Getenv(tokenEnv))
}

// IsConfigured reports whether both a project id and an API token are set.
func (g *GitLabAdapter) IsConfigured() bool {
	return g.projectID != "" && g.token != ""
}

// GetChangeForBranch fetches the open/most-recent merge request for branch
// and derives its ChangeStatus. Any transport, auth, or decode failure is
// folded into ChangeStatus{Kind: ChangeError}, never returned as an error;
// pollers never see a Go error from an adapter method.
func (g *GitLabAdapter) GetChangeForBranch(ctx context.Context, branch string) ChangeStatus {
	items, err := g.listMergeRequests(ctx, branch)
	if err != nil {
		return ChangeStatus{Kind: ChangeError, Message: err.Error()}
	}
	if len(items) == 0 {
		return ChangeStatus{Kind: ChangeNone}
	}

	full, err := g.getMergeRequest(ctx, items[0].IID)
	if err != nil {
		return ChangeStatus{Kind: ChangeError, Message: err.Error()}
	}
	return full.intoChangeStatus()
}

func (g *GitLabAdapter) listMergeRequests(ctx context.Context, branch string) ([]gitlabMergeRequestListItem, error) {
	q := url.Values{}
	q.Set("source_branch", branch)
	q.Set("state", "opened")
	q.Set("order_by", "updated_at")

	path := fmt.Sprintf("/projects/%s/merge_requests?%s", url.PathEscape(g.projectID), q.Encode())
	var items []gitlabMergeRequestListItem
	if err := g.get(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("list merge requests: %w", err)
	}
	return items, nil
}

func (g *GitLabAdapter) getMergeRequest(ctx context.Context, iid int) (gitlabMergeRequestResponse, error) {
	path := fmt.Sprintf("/projects/%s/merge_requests/%s", url.PathEscape(g.projectID), strconv.Itoa(iid))
	var mr gitlabMergeRequestResponse
	if err := g.get(ctx, path, &mr); err != nil {
		return gitlabMergeRequestResponse{}, fmt.Errorf("get merge request !%d: %w", iid, err)
	}
	return mr, nil
}

func (g *GitLabAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gitlab API returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
