package integration

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/ylchen07/worklog-dashboard/internal/atlassian"
	"github.com/ylchen07/worklog-dashboard/internal/config"
	"github.com/ylchen07/worklog-dashboard/internal/jira"
	"github.com/ylchen07/worklog-dashboard/internal/repository"
)

// requireIntegration skips the test unless WORKLOG_INTEGRATION is set.
func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("WORKLOG_INTEGRATION") == "" {
		t.Skip("WORKLOG_INTEGRATION not set; skipping integration tests")
	}
}

func ensureHTTPS(site string) string {
	trimmed := strings.TrimSpace(site)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	return "https://" + strings.TrimRight(trimmed, "/")
}

// resolveEnv returns the first non-empty environment variable value from the provided keys.
func resolveEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func jiraCredentials() config.ServiceCredentials {
	return config.ServiceCredentials{
		Email:      resolveEnv("WORKLOG_JIRA_EMAIL", "JIRA_USER"),
		APIToken:   resolveEnv("WORKLOG_JIRA_API_TOKEN", "JIRA_PASSWORD"),
		OAuthToken: os.Getenv("WORKLOG_JIRA_OAUTH_TOKEN"),
	}
}

func credsValid(creds config.ServiceCredentials) bool {
	if creds.OAuthToken != "" {
		return true
	}
	return creds.Email != "" && creds.APIToken != ""
}

// jiraSite returns the configured site or skips the test.
func jiraSite(t *testing.T) string {
	t.Helper()

	site := ensureHTTPS(os.Getenv("WORKLOG_JIRA_SITE"))
	if site == "" {
		t.Skip("WORKLOG_JIRA_SITE not set")
	}
	if !credsValid(jiraCredentials()) {
		t.Skip("Jira credentials not provided")
	}
	return site
}

// setupJiraService builds the REST-backed Jira service from the environment.
func setupJiraService(t *testing.T) *jira.Service {
	t.Helper()

	site := jiraSite(t)
	client, err := atlassian.NewClient(site+"/rest/api/3", jiraCredentials(), 0, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return jira.NewService(client)
}

// setupProjects connects to the lookup database, skipping when no DSN is set.
func setupProjects(t *testing.T) *repository.ProjectRepository {
	t.Helper()

	dsn := resolveEnv("WORKLOG_DATABASE_DSN", "DATABASE_URL")
	if dsn == "" {
		t.Skip("WORKLOG_DATABASE_DSN not set")
	}

	pool, err := repository.NewDB(context.Background(), dsn, 2)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(pool.Close)

	return repository.NewProjectRepository(pool)
}

// testProject returns the project key used for search tests, or skips.
func testProject(t *testing.T) string {
	t.Helper()
	key := os.Getenv("WORKLOG_INTEGRATION_PROJECT")
	if key == "" {
		t.Skip("WORKLOG_INTEGRATION_PROJECT not set")
	}
	return key
}

// skipIfEmpty skips the test if the provided slice is empty with a helpful message.
func skipIfEmpty[T any](t *testing.T, items []T, itemType string) {
	t.Helper()
	if len(items) == 0 {
		t.Skipf("no %s found; cannot proceed with test", itemType)
	}
}

