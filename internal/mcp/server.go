package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ylchen07/worklog-dashboard/internal/worklog"
)

// Reports builds the dashboard views served as tools.
type Reports interface {
	Home(ctx context.Context, w worklog.Window) ([]worklog.Summary, error)
	Apps(ctx context.Context, w worklog.Window) ([]worklog.Issue, error)
}

// Dependencies bundles the services required for MCP server construction.
type Dependencies struct {
	Reports Reports
	Version string
	Logger  *slog.Logger
}

// NewServer builds an MCP server exposing the worklog reports as read-only tools.
func NewServer(deps Dependencies) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "0.1.0"
	}

	srv := server.NewMCPServer(
		"Worklog Dashboard",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Read-only tools reporting time logged against tracked Jira epics, their child issues and subtasks."),
		server.WithRecovery(),
	)

	if deps.Reports != nil {
		NewIntegrationTools(srv, deps.Reports, deps.Logger)
	}

	return srv
}
