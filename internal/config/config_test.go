package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestServiceCredentialsValidate(t *testing.T) {
	t.Parallel()

	creds := ServiceCredentials{Email: "user@example.com", APIToken: "token"}
	if err := creds.validate("jira"); err != nil {
		t.Fatalf("expected credentials to be valid, got %v", err)
	}

	creds = ServiceCredentials{OAuthToken: "token"}
	if err := creds.validate("jira"); err != nil {
		t.Fatalf("expected oauth credentials to be valid, got %v", err)
	}

	creds = ServiceCredentials{Email: "user@example.com"}
	if err := creds.validate("jira"); err == nil {
		t.Fatalf("expected error for incomplete credentials")
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{MaxConcurrency: 4},
		Database: DatabaseConfig{DSN: "postgres://localhost/reports"},
		Jira: JiraConfig{
			Site:               "https://acme.atlassian.net",
			ServiceCredentials: ServiceCredentials{Email: "a", APIToken: "b"},
			EpicCutoff:         "2024-01-01",
			PageSize:           100,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing site", mutate: func(c *Config) { c.Jira.Site = " " }, wantErr: "jira.site"},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "database.dsn"},
		{name: "bad cutoff", mutate: func(c *Config) { c.Jira.EpicCutoff = "01/01/2024" }, wantErr: "epic_cutoff"},
		{name: "zero page size", mutate: func(c *Config) { c.Jira.PageSize = 0 }, wantErr: "page_size"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Server.MaxConcurrency = 0 }, wantErr: "max_concurrency"},
		{name: "no credentials", mutate: func(c *Config) { c.Jira.ServiceCredentials = ServiceCredentials{} }, wantErr: "requires either"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Server.LogLevel != "info" {
					t.Fatalf("expected log level to default to info, got %q", cfg.Server.LogLevel)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	t.Setenv("NETRC", filepath.Join(t.TempDir(), "none"))
	t.Setenv("JIRA_USER", "legacy@acme.io")
	t.Setenv("JIRA_PASSWORD", "legacy-token")
	t.Setenv("WORKLOG_SERVER_MAX_CONCURRENCY", "3")

	dir := t.TempDir()
	content := `server:
  log_level: debug
database:
  dsn: postgres://reports@localhost/reports
jira:
  site: acme.atlassian.net
  page_size: 50
  timeout: 5s
  fields:
    billable: customfield_99999
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.LogLevel != "debug" || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Server.MaxConcurrency != 3 {
		t.Fatalf("expected env override for max_concurrency, got %d", cfg.Server.MaxConcurrency)
	}
	if cfg.Jira.Email != "legacy@acme.io" || cfg.Jira.APIToken != "legacy-token" {
		t.Fatalf("expected legacy env credentials, got %#v", cfg.Jira.ServiceCredentials)
	}
	if cfg.Jira.PageSize != 50 || cfg.Jira.Timeout != 5*time.Second {
		t.Fatalf("unexpected jira config %#v", cfg.Jira)
	}
	if cfg.Jira.EpicCutoff != "2024-01-01" {
		t.Fatalf("expected default epic cutoff, got %q", cfg.Jira.EpicCutoff)
	}
	if cfg.Jira.Fields.Billable != "customfield_99999" || cfg.Jira.Fields.TeamLead != "customfield_10147" {
		t.Fatalf("unexpected field mapping %#v", cfg.Jira.Fields)
	}
}

func TestLoadFlagOverrides(t *testing.T) {
	t.Setenv("NETRC", filepath.Join(t.TempDir(), "none"))
	t.Setenv("WORKLOG_JIRA_OAUTH_TOKEN", "oauth")
	t.Setenv("WORKLOG_DATABASE_DSN", "postgres://localhost/reports")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	flags.String("jira-site", "", "")
	if err := flags.Parse([]string{"--addr", ":9090", "--jira-site", "https://acme.atlassian.net"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(t.TempDir(), flags)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected flag override for addr, got %q", cfg.Server.Addr)
	}
	if cfg.Jira.Site != "https://acme.atlassian.net" {
		t.Fatalf("expected flag override for site, got %q", cfg.Jira.Site)
	}
}

func TestLoadRequiresSite(t *testing.T) {
	t.Setenv("NETRC", filepath.Join(t.TempDir(), "none"))
	t.Setenv("WORKLOG_JIRA_OAUTH_TOKEN", "oauth")

	if _, err := Load(t.TempDir(), nil); err == nil || !strings.Contains(err.Error(), "jira.site") {
		t.Fatalf("expected missing site error, got %v", err)
	}
}
