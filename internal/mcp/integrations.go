package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ylchen07/worklog-dashboard/internal/worklog"
)

// IntegrationTools wires the report service into MCP tools.
type IntegrationTools struct {
	reports Reports
	logger  *slog.Logger
	now     func() time.Time
}

// NewIntegrationTools registers the report tools on the server.
func NewIntegrationTools(s *server.MCPServer, reports Reports, logger *slog.Logger) *IntegrationTools {
	it := &IntegrationTools{reports: reports, logger: logger, now: time.Now}

	s.AddTool(
		mcp.NewTool(
			"integrations.home",
			mcp.WithDescription("List tracked epics with the hours logged directly on each within the date range"),
			mcp.WithInputSchema[IntegrationsArgs](),
			mcp.WithOutputSchema[IntegrationsHomeResult](),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTypedToolHandler(it.handleHome),
	)

	// The apps result is recursive, so it is returned without an output schema.
	s.AddTool(
		mcp.NewTool(
			"integrations.apps",
			mcp.WithDescription("List tracked epics with child issues, subtasks, in-range worklogs and rolled-up hours"),
			mcp.WithInputSchema[IntegrationsArgs](),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTypedToolHandler(it.handleApps),
	)

	return it
}

// IntegrationsArgs selects the reporting window.
type IntegrationsArgs struct {
	StartDate string `json:"startDate,omitempty" jsonschema_description:"Start of the range (YYYY-MM-DD or timestamp); defaults to one year ago"`
	EndDate   string `json:"endDate,omitempty" jsonschema_description:"End of the range (YYYY-MM-DD or timestamp); defaults to now"`
}

// IntegrationsHomeResult is the shallow report payload.
type IntegrationsHomeResult struct {
	Epics []worklog.Summary `json:"epics"`
}

// IntegrationsAppsResult is the deep report payload.
type IntegrationsAppsResult struct {
	Epics []worklog.Issue `json:"epics"`
}

func (it *IntegrationTools) window(args IntegrationsArgs) (worklog.Window, error) {
	return worklog.ParseWindow(args.StartDate, args.EndDate, it.now())
}

func (it *IntegrationTools) handleHome(ctx context.Context, _ mcp.CallToolRequest, args IntegrationsArgs) (*mcp.CallToolResult, error) {
	w, err := it.window(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	epics, err := it.reports.Home(ctx, w)
	if err != nil {
		it.logger.Error("home report failed", slog.Any("error", err))
		return mcp.NewToolResultErrorFromErr("home report failed", err), nil
	}

	var hours float64
	for _, e := range epics {
		hours += e.TotalWorklogTime
	}
	fallback := fmt.Sprintf("Found %d epics with %.2f hours logged", len(epics), hours)
	return mcp.NewToolResultStructured(IntegrationsHomeResult{Epics: epics}, fallback), nil
}

func (it *IntegrationTools) handleApps(ctx context.Context, _ mcp.CallToolRequest, args IntegrationsArgs) (*mcp.CallToolResult, error) {
	w, err := it.window(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	epics, err := it.reports.Apps(ctx, w)
	if err != nil {
		it.logger.Error("apps report failed", slog.Any("error", err))
		return mcp.NewToolResultErrorFromErr("apps report failed", err), nil
	}

	var hours float64
	for _, e := range epics {
		hours += e.TotalWorklogTime
	}
	fallback := fmt.Sprintf("Found %d epics with %.2f hours logged", len(epics), hours)
	return mcp.NewToolResultStructured(IntegrationsAppsResult{Epics: epics}, fallback), nil
}
