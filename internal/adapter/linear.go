package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// defaultLinearBaseURL is Linear's GraphQL API endpoint, used when
// Providers.ExternalTaskBaseURL is unset.
const defaultLinearBaseURL = "https://api.linear.app/graphql"

// LinearAdapter implements ExternalTaskAdapter against Linear's GraphQL API,
// LinearAdapter implements ExternalTaskAdapter against Linear's GraphQL
// API: a stable public schema with no OAuth app registration step, wired
// from a single API key.
type LinearAdapter struct {
	baseURL string
	teamID  string
	token   string
	client  *http.Client
}

// NewLinearAdapter constructs a LinearAdapter. baseURL defaults to Linear's
// public GraphQL endpoint when empty. An empty token yields an adapter that
// reports IsConfigured() == false.
func NewLinearAdapter(baseURL, teamID, token string) *LinearAdapter {
	if baseURL == "" {
		baseURL = defaultLinearBaseURL
	}
	return &LinearAdapter{baseURL: baseURL, teamID: teamID, token: token, client: &http.Client{}}
}

// NewLinearAdapterFromEnv builds a LinearAdapter from config plus a token
// read from tokenEnv, the shape cmd/root.go wires adapters with.
func NewLinearAdapterFromEnv(baseURL, teamID, tokenEnv string) *LinearAdapter {
	return NewLinearAdapter(baseURL, teamID, os.Getenv(tokenEnv))
}

// IsConfigured reports whether an API key is set.
func (l *LinearAdapter) IsConfigured() bool {
	return l.token != ""
}

type linearGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type linearGraphQLError struct {
	Message string `json:"message"`
}

type linearGraphQLResponse[T any] struct {
	Data   T                    `json:"data"`
	Errors []linearGraphQLError `json:"errors"`
}

type linearIssueFields struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	State struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"state"`
}

const linearIssueQuery = `query($id: String!) {
	issue(id: $id) {
		id
		title
		url
		state { id name }
	}
}`

// GetTask fetches one Linear issue by id and maps it to a TaskRecord.
func (l *LinearAdapter) GetTask(ctx context.Context, id string) (TaskRecord, error) {
	var resp linearGraphQLResponse[struct {
		Issue linearIssueFields `json:"issue"`
	}]
	if err := l.query(ctx, linearIssueQuery, map[string]any{"id": id}, &resp); err != nil {
		return TaskRecord{}, fmt.Errorf("fetch issue %s: %w", id, err)
	}
	issue := resp.Data.Issue
	return TaskRecord{ID: issue.ID, Title: issue.Title, Status: issue.State.Name, URL: issue.URL}, nil
}

const linearUpdateStateMutation = `mutation($id: String!, $stateId: String!) {
	issueUpdate(id: $id, input: { stateId: $stateId }) {
		success
	}
}`

// UpdateStatus moves a Linear issue to a new workflow state.
func (l *LinearAdapter) UpdateStatus(ctx context.Context, id, optionID string) error {
	var resp linearGraphQLResponse[struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}]
	if err := l.query(ctx, linearUpdateStateMutation, map[string]any{"id": id, "stateId": optionID}, &resp); err != nil {
		return fmt.Errorf("update issue %s status: %w", id, err)
	}
	if !resp.Data.IssueUpdate.Success {
		return fmt.Errorf("update issue %s status: linear reported failure", id)
	}
	return nil
}

const linearTeamIssuesQuery = `query($teamId: String!) {
	team(id: $teamId) {
		issues(filter: { state: { type: { neq: "completed" } } }) {
			nodes {
				id
				title
				url
				state { id name }
			}
		}
	}
}`

// ListItems lists the non-completed issues on the configured team.
func (l *LinearAdapter) ListItems(ctx context.Context) ([]TaskRecord, error) {
	var resp linearGraphQLResponse[struct {
		Team struct {
			Issues struct {
				Nodes []linearIssueFields `json:"nodes"`
			} `json:"issues"`
		} `json:"team"`
	}]
	if err := l.query(ctx, linearTeamIssuesQuery, map[string]any{"teamId": l.teamID}, &resp); err != nil {
		return nil, fmt.Errorf("list team issues: %w", err)
	}

	nodes := resp.Data.Team.Issues.Nodes
	records := make([]TaskRecord, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, TaskRecord{ID: n.ID, Title: n.Title, Status: n.State.Name, URL: n.URL})
	}
	return records, nil
}

const linearTeamStatesQuery = `query($teamId: String!) {
	team(id: $teamId) {
		states {
			nodes { id name }
		}
	}
}`

// GetStatusOptions lists the workflow states available on the configured
// team, the selectable values UpdateStatus accepts as optionID.
func (l *LinearAdapter) GetStatusOptions(ctx context.Context) ([]StatusOption, error) {
	var resp linearGraphQLResponse[struct {
		Team struct {
			States struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}]
	if err := l.query(ctx, linearTeamStatesQuery, map[string]any{"teamId": l.teamID}, &resp); err != nil {
		return nil, fmt.Errorf("list team states: %w", err)
	}

	nodes := resp.Data.Team.States.Nodes
	options := make([]StatusOption, 0, len(nodes))
	for _, n := range nodes {
		options = append(options, StatusOption{ID: n.ID, Name: n.Name})
	}
	return options, nil
}

func (l *LinearAdapter) query(ctx context.Context, gql string, variables map[string]any, out any) error {
	body, err := json.Marshal(linearGraphQLRequest{Query: gql, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("linear API returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var errCheck struct {
		Errors []linearGraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &errCheck); err != nil {
		return err
	}
	if len(errCheck.Errors) > 0 {
		return fmt.Errorf("linear API returned error: %s", errCheck.Errors[0].Message)
	}

	return json.Unmarshal(raw, out)
}
