package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/ylchen07/worklog-dashboard/internal/config"
)

// ErrInsufficientCredentials is returned when neither an OAuth token nor an
// email/API token pair is configured.
var ErrInsufficientCredentials = errors.New("auth: insufficient credentials")

// UserAgent is sent on every outbound Jira request.
const UserAgent = "worklog-dashboard"

// Header builds the Authorization header value for creds. OAuth bearer
// tokens take precedence over basic credentials.
func Header(creds config.ServiceCredentials) (string, error) {
	switch {
	case strings.TrimSpace(creds.OAuthToken) != "":
		return "Bearer " + creds.OAuthToken, nil
	case creds.Email != "" && creds.APIToken != "":
		token := base64.StdEncoding.EncodeToString([]byte(creds.Email + ":" + creds.APIToken))
		return "Basic " + token, nil
	default:
		return "", ErrInsufficientCredentials
	}
}

// Transport injects Jira authentication headers into outbound requests.
type Transport struct {
	base       http.RoundTripper
	authHeader string
	err        error
}

// NewTransport wraps base (http.DefaultTransport when nil). Credential
// problems surface on the first RoundTrip.
func NewTransport(base http.RoundTripper, creds config.ServiceCredentials) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	header, err := Header(creds)
	return &Transport{base: base, authHeader: header, err: err}
}

// RoundTrip implements http.RoundTripper. The caller's request is cloned,
// never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.err != nil {
		return nil, t.err
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", t.authHeader)
	clone.Header.Set("Accept", "application/json")
	if clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", UserAgent)
	}
	return t.base.RoundTrip(clone)
}
