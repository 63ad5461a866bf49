package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the full application configuration loaded from file/env.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Jira     JiraConfig     `mapstructure:"jira"`
}

// ServerConfig holds HTTP listener and process-wide options.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

// DatabaseConfig points at the Postgres database holding tracked project keys.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// JiraConfig describes the upstream Jira site and how to query it.
type JiraConfig struct {
	Site               string `mapstructure:"site"`
	APIBase            string `mapstructure:"api_base"`
	ServiceCredentials `mapstructure:",squash"`

	EpicCutoff    string        `mapstructure:"epic_cutoff"`
	PageSize      int           `mapstructure:"page_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	VerifyOnStart bool          `mapstructure:"verify_on_start"`
	Fields        FieldConfig   `mapstructure:"fields"`
}

// ServiceCredentials describes authentication for the Jira API.
type ServiceCredentials struct {
	Email      string `mapstructure:"email"`
	APIToken   string `mapstructure:"api_token"`
	OAuthToken string `mapstructure:"oauth_token"`
}

// FieldConfig maps report columns onto Jira custom field ids.
type FieldConfig struct {
	TeamLead  string `mapstructure:"team_lead"`
	QA        string `mapstructure:"qa"`
	Developer string `mapstructure:"developer"`
	Billable  string `mapstructure:"billable"`
}

// flagKeys binds CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"log-level":       "server.log_level",
	"log-format":      "server.log_format",
	"max-concurrency": "server.max_concurrency",
	"database-dsn":    "database.dsn",
	"jira-site":       "jira.site",
	"verify":          "jira.verify_on_start",
}

// Load reads configuration from the provided directory or file, environment
// variables and, when flags is non-nil, any flags the caller registered.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if path != "" {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			v.AddConfigPath(path)
		} else {
			v.SetConfigFile(path)
		}
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("worklog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials are usually env-only, so viper must know the keys up front.
	// JIRA_USER/JIRA_PASSWORD are kept for existing deployments.
	bindings := map[string][]string{
		"database.dsn":     {"WORKLOG_DATABASE_DSN", "DATABASE_URL"},
		"jira.email":       {"WORKLOG_JIRA_EMAIL", "JIRA_USER"},
		"jira.api_token":   {"WORKLOG_JIRA_API_TOKEN", "JIRA_PASSWORD"},
		"jira.oauth_token": {"WORKLOG_JIRA_OAUTH_TOKEN"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.applyNetrcDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.max_concurrency", 8)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("jira.epic_cutoff", "2024-01-01")
	v.SetDefault("jira.page_size", 100)
	v.SetDefault("jira.timeout", 30*time.Second)
	v.SetDefault("jira.verify_on_start", false)
	v.SetDefault("jira.fields.team_lead", "customfield_10147")
	v.SetDefault("jira.fields.qa", "customfield_10146")
	v.SetDefault("jira.fields.developer", "customfield_10145")
	v.SetDefault("jira.fields.billable", "customfield_10206")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Jira.Site) == "" {
		return fmt.Errorf("config: jira.site is required")
	}

	if err := c.Jira.ServiceCredentials.validate("jira"); err != nil {
		return err
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database.dsn is required")
	}

	if _, err := time.Parse("2006-01-02", c.Jira.EpicCutoff); err != nil {
		return fmt.Errorf("config: jira.epic_cutoff must be a YYYY-MM-DD date: %w", err)
	}

	if c.Jira.PageSize <= 0 {
		return fmt.Errorf("config: jira.page_size must be positive")
	}

	if c.Server.MaxConcurrency <= 0 {
		return fmt.Errorf("config: server.max_concurrency must be positive")
	}

	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	return nil
}

func (s ServiceCredentials) validate(name string) error {
	if s.OAuthToken == "" && (s.Email == "" || s.APIToken == "") {
		return fmt.Errorf("config: %s requires either oauth_token or email/api_token", name)
	}
	return nil
}
