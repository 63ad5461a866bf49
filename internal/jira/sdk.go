package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jiraapi "github.com/ctreminiom/go-atlassian/v2/jira/v2"

	"github.com/ylchen07/worklog-dashboard/internal/auth"
	"github.com/ylchen07/worklog-dashboard/internal/config"
)

// ClientOption allows callers to customise construction of the Jira SDK client.
type ClientOption func(*jiraapi.Client)

// WithUserAgent sets a custom user agent on the Jira client.
func WithUserAgent(agent string) ClientOption {
	return func(client *jiraapi.Client) {
		if strings.TrimSpace(agent) != "" {
			client.Auth.SetUserAgent(agent)
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the Jira SDK.
// The SDK keeps the pointer, so configure transport and timeout first.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *jiraapi.Client) {
		if httpClient != nil {
			client.HTTP = httpClient
		}
	}
}

// NewSDKClient creates a go-atlassian Jira client for site, which may be the
// bare Atlassian URL or an API base ending in /rest/api/2 or /rest/api/3.
// Bearer tokens win over basic auth, matching the REST transport.
func NewSDKClient(site string, creds config.ServiceCredentials, opts ...ClientOption) (*jiraapi.Client, error) {
	base, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}

	client, err := jiraapi.New(&http.Client{Timeout: 30 * time.Second}, base)
	if err != nil {
		return nil, fmt.Errorf("jira: initialise client: %w", err)
	}

	client.Auth.SetUserAgent(auth.UserAgent)

	for _, opt := range opts {
		opt(client)
	}

	switch {
	case strings.TrimSpace(creds.OAuthToken) != "":
		client.Auth.SetBearerToken(creds.OAuthToken)
	case strings.TrimSpace(creds.Email) != "" && strings.TrimSpace(creds.APIToken) != "":
		client.Auth.SetBasicAuth(creds.Email, creds.APIToken)
	default:
		return nil, fmt.Errorf("jira: %w", auth.ErrInsufficientCredentials)
	}

	return client, nil
}

// VerifyCredentials asks Jira who the configured credentials belong to and
// returns that user's display name.
func VerifyCredentials(ctx context.Context, client *jiraapi.Client) (string, error) {
	user, _, err := client.MySelf.Details(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("jira: verify credentials: %w", err)
	}
	if user == nil || user.AccountID == "" {
		return "", fmt.Errorf("jira: verify credentials: empty user")
	}
	return user.DisplayName, nil
}

func normalizeSite(site string) (string, error) {
	trimmed := strings.TrimSpace(site)
	if trimmed == "" {
		return "", fmt.Errorf("jira: site is required to construct client")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("jira: parse site: %w", err)
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	for _, suffix := range []string{"/rest/api/3", "/rest/api/2"} {
		if strings.HasSuffix(parsed.Path, suffix) {
			parsed.Path = strings.TrimRight(strings.TrimSuffix(parsed.Path, suffix), "/")
			break
		}
	}

	if parsed.Path != "" {
		parsed.Path += "/"
	}

	return parsed.String(), nil
}
