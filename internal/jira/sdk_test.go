package jira

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ylchen07/worklog-dashboard/internal/auth"
	"github.com/ylchen07/worklog-dashboard/internal/config"
)

func TestNewSDKClientRequiresSite(t *testing.T) {
	t.Parallel()

	_, err := NewSDKClient("  ", config.ServiceCredentials{Email: "user", APIToken: "token"})
	if err == nil || !strings.Contains(err.Error(), "site") {
		t.Fatalf("expected site validation error, got %v", err)
	}
}

func TestNewSDKClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewSDKClient("https://example.atlassian.net", config.ServiceCredentials{Email: "user"})
	if !errors.Is(err, auth.ErrInsufficientCredentials) {
		t.Fatalf("expected ErrInsufficientCredentials, got %v", err)
	}
}

func TestNewSDKClientBasicAuth(t *testing.T) {
	t.Parallel()

	client, err := NewSDKClient("https://example.atlassian.net/rest/api/3", config.ServiceCredentials{
		Email:    "user@example.com",
		APIToken: "secret",
	})
	if err != nil {
		t.Fatalf("NewSDKClient error: %v", err)
	}

	if !client.Auth.HasBasicAuth() {
		t.Fatalf("expected basic auth to be configured")
	}

	mail, token := client.Auth.GetBasicAuth()
	if mail != "user@example.com" || token != "secret" {
		t.Fatalf("unexpected basic auth credentials: %s %s", mail, token)
	}

	if agent := client.Auth.GetUserAgent(); agent != auth.UserAgent {
		t.Fatalf("expected default user agent, got %s", agent)
	}

	if site := strings.TrimRight(client.Site.String(), "/"); site != "https://example.atlassian.net" {
		t.Fatalf("expected site trimmed to base, got %s", site)
	}
}

func TestNewSDKClientOAuthToken(t *testing.T) {
	t.Parallel()

	client, err := NewSDKClient("https://example.atlassian.net", config.ServiceCredentials{
		Email:      "user@example.com",
		APIToken:   "secret",
		OAuthToken: "bearer-token",
	})
	if err != nil {
		t.Fatalf("NewSDKClient error: %v", err)
	}

	if client.Auth.GetBearerToken() != "bearer-token" {
		t.Fatalf("expected bearer token to be set")
	}
	if client.Auth.HasBasicAuth() {
		t.Fatalf("did not expect basic auth to be configured")
	}
}

func TestNewSDKClientOptions(t *testing.T) {
	t.Parallel()

	customHTTP := &http.Client{Timeout: 5 * time.Second}

	client, err := NewSDKClient(
		"https://example.atlassian.net",
		config.ServiceCredentials{Email: "user", APIToken: "token"},
		WithHTTPClient(customHTTP),
		WithUserAgent("custom-agent"),
		WithUserAgent("  "),
	)
	if err != nil {
		t.Fatalf("NewSDKClient error: %v", err)
	}

	httpClient, ok := client.HTTP.(*http.Client)
	if !ok || httpClient != customHTTP {
		t.Fatalf("expected HTTP client override to be applied")
	}
	if agent := client.Auth.GetUserAgent(); agent != "custom-agent" {
		t.Fatalf("expected custom user agent, got %s", agent)
	}
}

func TestNormalizeSite(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.atlassian.net/rest/api/2":    "https://example.atlassian.net",
		"https://example.atlassian.net/rest/api/3/":   "https://example.atlassian.net",
		"  https://example.atlassian.net/  ":          "https://example.atlassian.net",
		"https://jira.example.com/context/rest/api/2": "https://jira.example.com/context/",
		"https://jira.example.com/context":            "https://jira.example.com/context/",
	}
	for in, want := range cases {
		out, err := normalizeSite(in)
		if err != nil {
			t.Fatalf("normalizeSite(%q) unexpected error: %v", in, err)
		}
		if out != want {
			t.Fatalf("normalizeSite(%q) = %s, want %s", in, out, want)
		}
	}
}

func TestVerifyCredentials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"accountId":"5b10a","displayName":"Ada Lovelace"}`, want: "Ada Lovelace"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Client must be authenticated"}`, wantErr: true},
		{name: "empty user", status: http.StatusOK, body: `{}`, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if !strings.HasSuffix(r.URL.Path, "/rest/api/2/myself") {
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
				return &http.Response{
					StatusCode: tc.status,
					Body:       io.NopCloser(strings.NewReader(tc.body)),
					Header:     http.Header{"Content-Type": []string{"application/json"}},
					Request:    r,
				}, nil
			})}

			client, err := NewSDKClient("https://example.atlassian.net", config.ServiceCredentials{OAuthToken: "tok"}, WithHTTPClient(httpClient))
			if err != nil {
				t.Fatalf("NewSDKClient error: %v", err)
			}

			name, err := VerifyCredentials(context.Background(), client)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyCredentials error: %v", err)
			}
			if name != tc.want {
				t.Fatalf("VerifyCredentials = %q, want %q", name, tc.want)
			}
		})
	}
}
