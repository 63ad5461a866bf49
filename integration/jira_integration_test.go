//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/ylchen07/worklog-dashboard/internal/jira"
)

func TestJiraVerifyCredentials(t *testing.T) {
	requireIntegration(t)

	site := jiraSite(t)
	client, err := jira.NewSDKClient(site, jiraCredentials())
	if err != nil {
		t.Fatalf("NewSDKClient: %v", err)
	}

	user, err := jira.VerifyCredentials(context.Background(), client)
	if err != nil {
		t.Fatalf("VerifyCredentials: %v", err)
	}
	t.Logf("authenticated to %s as %s", site, user)
}

func TestJiraSearchEpicsAndWorklogs(t *testing.T) {
	requireIntegration(t)

	svc := setupJiraService(t)
	project := testProject(t)

	res, err := svc.SearchIssues(context.Background(), jira.SearchRequest{
		JQL:        fmt.Sprintf("project = %q AND issuetype = Epic", project),
		MaxResults: 5,
		Fields:     []string{"summary", "status", "created"},
	})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	t.Logf("project %s has %d epics", project, res.Total)
	skipIfEmpty(t, res.Issues, "epics")

	epic := res.Issues[0]
	worklogs, err := svc.IssueWorklogs(context.Background(), epic.ID)
	if err != nil {
		t.Fatalf("IssueWorklogs(%s): %v", epic.Key, err)
	}
	for _, w := range worklogs {
		if w.IssueID != epic.ID {
			t.Fatalf("worklog %s owned by %s, want %s", w.ID, w.IssueID, epic.ID)
		}
	}
	t.Logf("epic %s has %d worklogs", epic.Key, len(worklogs))
}
