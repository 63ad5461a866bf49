package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	atlassianclient "github.com/ylchen07/worklog-dashboard/internal/atlassian"
	"github.com/ylchen07/worklog-dashboard/internal/config"
	httpapi "github.com/ylchen07/worklog-dashboard/internal/http"
	"github.com/ylchen07/worklog-dashboard/internal/jira"
	mcpserver "github.com/ylchen07/worklog-dashboard/internal/mcp"
	"github.com/ylchen07/worklog-dashboard/internal/report"
	"github.com/ylchen07/worklog-dashboard/internal/repository"
	"github.com/ylchen07/worklog-dashboard/pkg/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "worklog-dashboard",
		Short:         "Report time logged against tracked Jira epics",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "Path to configuration directory or file")
	flags.String("addr", "", "HTTP listen address")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (json, text)")
	flags.Int("max-concurrency", 0, "Maximum concurrent Jira requests per tree level")
	flags.String("database-dsn", "", "Postgres connection string")
	flags.String("jira-site", "", "Jira site URL")
	flags.Bool("verify", false, "Verify Jira credentials on start-up")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the dashboard HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, cfgPath, serveHTTP)
			},
		},
		&cobra.Command{
			Use:   "mcp",
			Short: "Serve the reports as MCP tools over stdio",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, cfgPath, serveMCP)
			},
		},
	)

	return root
}

type serveFunc func(ctx context.Context, cfg *config.Config, reports *report.Service, logger *slog.Logger) error

func run(cmd *cobra.Command, cfgPath string, serve serveFunc) error {
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		slog.Default().Error("failed to load configuration", slog.Any("error", err))
		return err
	}

	logger := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jiraSite := ensureHTTPS(cfg.Jira.Site)
	jiraAPI := buildJiraAPIBase(jiraSite)
	if apiOverride := ensureHTTPS(cfg.Jira.APIBase); apiOverride != "" {
		jiraAPI = strings.TrimRight(apiOverride, "/")
	}

	if cfg.Jira.VerifyOnStart {
		if err := verifyJira(ctx, jiraSite, cfg, logger); err != nil {
			logger.Error("jira credential check failed", slog.Any("error", err))
			return err
		}
	}

	jiraClient, err := atlassianclient.NewClient(jiraAPI, cfg.Jira.ServiceCredentials, cfg.Jira.Timeout, logger)
	if err != nil {
		logger.Error("failed to initialize Jira client", slog.Any("error", err))
		return err
	}

	db, err := repository.NewDB(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return err
	}
	defer db.Close()

	reports := report.NewService(
		repository.NewProjectRepository(db),
		jira.NewService(jiraClient),
		report.Options{
			EpicCutoff:     cfg.Jira.EpicCutoff,
			PageSize:       cfg.Jira.PageSize,
			MaxConcurrency: cfg.Server.MaxConcurrency,
			Fields:         cfg.Jira.Fields,
			Logger:         logger,
		},
	)

	if err := serve(ctx, cfg, reports, logger); err != nil {
		logger.Error("server terminated", slog.Any("error", err))
		return err
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, reports *report.Service, logger *slog.Logger) error {
	router := httpapi.NewRouter(httpapi.NewHandler(reports, logger))
	return httpapi.NewServer(cfg.Server.Addr, router, logger).Run(ctx)
}

func serveMCP(_ context.Context, _ *config.Config, reports *report.Service, logger *slog.Logger) error {
	srv := mcpserver.NewServer(mcpserver.Dependencies{
		Reports: reports,
		Version: version,
		Logger:  logger,
	})
	return server.ServeStdio(srv)
}

func verifyJira(ctx context.Context, site string, cfg *config.Config, logger *slog.Logger) error {
	client, err := jira.NewSDKClient(site, cfg.Jira.ServiceCredentials,
		jira.WithHTTPClient(&http.Client{Timeout: cfg.Jira.Timeout}),
	)
	if err != nil {
		return err
	}

	user, err := jira.VerifyCredentials(ctx, client)
	if err != nil {
		return err
	}

	logger.Info("jira credentials verified", slog.String("site", site), slog.String("user", user))
	return nil
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

func buildJiraAPIBase(site string) string {
	trimmed := strings.TrimRight(site, "/")
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(trimmed, "/rest/api/3") {
		return trimmed
	}
	if strings.HasSuffix(trimmed, "/rest/api/2") {
		return strings.TrimSuffix(trimmed, "2") + "3"
	}
	return trimmed + "/rest/api/3"
}
