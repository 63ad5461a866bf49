package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ylchen07/worklog-dashboard/internal/atlassian"
)

// Service exposes the Jira REST endpoints the dashboard reads.
type Service struct {
	client *atlassian.Client
}

// NewService creates a Jira service using the provided API client.
func NewService(client *atlassian.Client) *Service {
	return &Service{client: client}
}

// apiPath joins parts into a path relative to the client's API base.
func apiPath(parts ...string) string {
	builder := strings.Builder{}

	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			builder.WriteByte('/')
			builder.WriteString(trimmed)
		}
	}

	return builder.String()
}

// SearchIssues runs one page of a JQL search. Every returned issue, and every
// subtask nested in it, is validated before the page is handed back.
func (s *Service) SearchIssues(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.JQL) == "" {
		return nil, fmt.Errorf("jira: jql is required")
	}

	body := map[string]any{
		"jql":     req.JQL,
		"startAt": req.StartAt,
	}
	if req.MaxResults > 0 {
		body["maxResults"] = req.MaxResults
	}
	if len(req.Fields) > 0 {
		body["fields"] = req.Fields
	}

	var result SearchResult
	if err := s.client.Post(ctx, apiPath("search"), body, &result); err != nil {
		return nil, fmt.Errorf("jira: search %q at %d: %w", req.JQL, req.StartAt, err)
	}

	for _, issue := range result.Issues {
		if err := issue.Validate(); err != nil {
			return nil, err
		}
		for _, sub := range issue.Fields.Subtasks {
			if err := sub.Validate(); err != nil {
				return nil, err
			}
		}
	}

	return &result, nil
}

// IssueWorklogs returns every worklog of the issue, following the endpoint's
// pagination until the reported total is reached. Entries are stamped with
// issueID when Jira leaves the owner id out.
func (s *Service) IssueWorklogs(ctx context.Context, issueID string) ([]Worklog, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, fmt.Errorf("jira: issue id is required")
	}

	var worklogs []Worklog
	startAt := 0
	for {
		query := url.Values{}
		query.Set("startAt", strconv.Itoa(startAt))

		var page WorklogPage
		if err := s.client.Get(ctx, apiPath("issue", issueID, "worklog"), query, &page); err != nil {
			return nil, fmt.Errorf("jira: worklogs for %s: %w", issueID, err)
		}

		for _, w := range page.Worklogs {
			if w.IssueID == "" {
				w.IssueID = issueID
			}
			worklogs = append(worklogs, w)
		}

		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			break
		}
	}

	return worklogs, nil
}
