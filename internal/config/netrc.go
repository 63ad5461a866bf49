package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// NetrcEntry represents credentials for a single machine in .netrc.
type NetrcEntry struct {
	Machine  string
	Login    string
	Password string
	Account  string
}

// parseNetrc reads a .netrc file into machine -> entry. A missing file is
// not an error and yields a nil map.
func parseNetrc(path string) (map[string]NetrcEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("netrc: read: %w", err)
	}

	return parseNetrcTokens(netrcTokens(string(data))), nil
}

// netrcTokens splits netrc content into whitespace separated tokens,
// dropping '#' comments.
func netrcTokens(content string) []string {
	var tokens []string
	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	return tokens
}

func parseNetrcTokens(tokens []string) map[string]NetrcEntry {
	entries := make(map[string]NetrcEntry)

	var current *NetrcEntry
	flush := func() {
		if current != nil && current.Machine != "" {
			entries[current.Machine] = *current
		}
	}

	for i := 0; i < len(tokens); i++ {
		var value string
		hasValue := i+1 < len(tokens)
		if hasValue {
			value = tokens[i+1]
		}

		switch tokens[i] {
		case "machine":
			flush()
			current = nil
			if hasValue {
				current = &NetrcEntry{Machine: value}
				i++
			}
		case "default":
			flush()
			current = &NetrcEntry{Machine: "default"}
		case "login", "password", "account":
			if current == nil || !hasValue {
				continue
			}
			switch tokens[i] {
			case "login":
				current.Login = value
			case "password":
				current.Password = value
			case "account":
				current.Account = value
			}
			i++
		}
	}
	flush()

	return entries
}

// findNetrcPath honours $NETRC, then falls back to ~/.netrc.
func findNetrcPath() string {
	if p := os.Getenv("NETRC"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".netrc")
}

// lookupNetrc returns the login/password pair for site's host. It tries the
// host as given, the host without port and finally the default entry.
func lookupNetrc(site string) (login, password string, err error) {
	path := findNetrcPath()
	if path == "" {
		return "", "", nil
	}

	entries, err := parseNetrc(path)
	if err != nil || len(entries) == 0 {
		return "", "", err
	}

	host := site
	if parsed, perr := url.Parse(site); perr == nil && parsed.Host != "" {
		host = parsed.Host
	}

	candidates := []string{host}
	if h, _, serr := net.SplitHostPort(host); serr == nil {
		candidates = append(candidates, h)
	}
	candidates = append(candidates, "default")

	for _, name := range candidates {
		if entry, ok := entries[name]; ok {
			return entry.Login, entry.Password, nil
		}
	}

	return "", "", nil
}

// applyNetrcDefaults fills Jira email/api_token from .netrc when no
// credentials were configured.
func (c *Config) applyNetrcDefaults() error {
	j := &c.Jira
	if j.Site == "" || j.Email != "" || j.APIToken != "" || j.OAuthToken != "" {
		return nil
	}

	login, password, err := lookupNetrc(j.Site)
	if err != nil {
		return fmt.Errorf("config: load jira netrc: %w", err)
	}
	if login != "" && password != "" {
		j.Email = login
		j.APIToken = password
	}

	return nil
}
