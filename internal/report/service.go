// Package report assembles the dashboard views from the project lookup store
// and Jira.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ylchen07/worklog-dashboard/internal/config"
	"github.com/ylchen07/worklog-dashboard/internal/jira"
	"github.com/ylchen07/worklog-dashboard/internal/worklog"
)

// Defaults applied when Options leaves a value unset.
const (
	DefaultEpicCutoff     = "2024-01-01"
	DefaultPageSize       = 100
	DefaultMaxConcurrency = 8
)

// IssueSource is the subset of the Jira service the reports read from.
type IssueSource interface {
	SearchIssues(ctx context.Context, req jira.SearchRequest) (*jira.SearchResult, error)
	IssueWorklogs(ctx context.Context, issueID string) ([]jira.Worklog, error)
}

// ProjectStore lists the Jira project keys tracked by the dashboard.
type ProjectStore interface {
	ProjectKeys(ctx context.Context) ([]string, error)
}

// Options tunes how the reports query Jira.
type Options struct {
	EpicCutoff     string
	PageSize       int
	MaxConcurrency int
	Fields         config.FieldConfig
	Logger         *slog.Logger
}

// Service builds the home and apps views.
type Service struct {
	projects  ProjectStore
	issues    IssueSource
	formatter Formatter
	opts      Options
	logger    *slog.Logger
}

// NewService wires a report service.
func NewService(projects ProjectStore, issues IssueSource, opts Options) *Service {
	if opts.EpicCutoff == "" {
		opts.EpicCutoff = DefaultEpicCutoff
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		projects:  projects,
		issues:    issues,
		formatter: NewFormatter(opts.Fields),
		opts:      opts,
		logger:    logger,
	}
}

// Home returns every tracked epic with the hours logged directly on it inside w.
func (s *Service) Home(ctx context.Context, w worklog.Window) ([]worklog.Summary, error) {
	start := time.Now()

	epics, err := s.trackedEpics(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]worklog.Summary, len(epics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, epic := range epics {
		g.Go(func() error {
			node, err := s.withWorklogs(gctx, epic)
			if err != nil {
				return err
			}
			out[i] = worklog.Summarize(node, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("home report built",
		slog.Int("epics", len(out)),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// Apps returns every tracked epic with its child issues and their subtasks,
// worklogs filtered to w and totals rolled up at each level.
func (s *Service) Apps(ctx context.Context, w worklog.Window) ([]worklog.Issue, error) {
	start := time.Now()

	epics, err := s.trackedEpics(ctx)
	if err != nil {
		return nil, err
	}

	tree := make([]worklog.Issue, len(epics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, epic := range epics {
		g.Go(func() error {
			node, err := s.epicTree(gctx, epic)
			if err != nil {
				return err
			}
			tree[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := worklog.RollUpAll(tree, w)
	if out == nil {
		out = []worklog.Issue{}
	}

	s.logger.Info("apps report built",
		slog.Int("epics", len(out)),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// trackedEpics lists the epics of every tracked project, project by project
// and page by page.
func (s *Service) trackedEpics(ctx context.Context) ([]jira.Issue, error) {
	keys, err := s.projects.ProjectKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: project keys: %w", err)
	}

	var epics []jira.Issue
	for _, key := range keys {
		found, err := s.searchAll(ctx, epicJQL(key, s.opts.EpicCutoff))
		if err != nil {
			return nil, err
		}
		s.logger.Debug("epics fetched", slog.String("project", key), slog.Int("count", len(found)))
		epics = append(epics, found...)
	}
	return epics, nil
}

// searchAll pages through a JQL search, advancing by the page size until the
// offset reaches the reported total.
func (s *Service) searchAll(ctx context.Context, jql string) ([]jira.Issue, error) {
	var issues []jira.Issue
	for startAt := 0; ; {
		page, err := s.issues.SearchIssues(ctx, jira.SearchRequest{
			JQL:        jql,
			StartAt:    startAt,
			MaxResults: s.opts.PageSize,
			Fields:     s.formatter.requestFields(),
		})
		if err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)

		startAt += s.opts.PageSize
		if startAt >= page.Total {
			return issues, nil
		}
	}
}

// withWorklogs formats raw and attaches its unfiltered worklogs.
func (s *Service) withWorklogs(ctx context.Context, raw jira.Issue) (worklog.Issue, error) {
	fields, err := s.formatter.Format(raw)
	if err != nil {
		return worklog.Issue{}, err
	}

	entries, err := s.issues.IssueWorklogs(ctx, raw.ID)
	if err != nil {
		return worklog.Issue{}, err
	}

	return worklog.Issue{Fields: fields, Worklogs: ownedWorklogs(entries, raw.ID)}, nil
}

// epicTree fetches an epic's worklogs and its child issues concurrently.
func (s *Service) epicTree(ctx context.Context, epic jira.Issue) (worklog.Issue, error) {
	var (
		node     worklog.Issue
		children []worklog.Issue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		node, err = s.withWorklogs(gctx, epic)
		return err
	})
	g.Go(func() error {
		raw, err := s.searchAll(gctx, childJQL(epic.Key))
		if err != nil {
			return err
		}
		children, err = s.childIssues(gctx, raw)
		return err
	})
	if err := g.Wait(); err != nil {
		return worklog.Issue{}, err
	}

	node.ChildIssues = children
	return node, nil
}

// childIssues attaches worklogs to each child issue and builds its subtasks.
func (s *Service) childIssues(ctx context.Context, raw []jira.Issue) ([]worklog.Issue, error) {
	out := make([]worklog.Issue, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, child := range raw {
		g.Go(func() error {
			node, err := s.withWorklogs(gctx, child)
			if err != nil {
				return err
			}
			node.Subtasks, err = s.subtasks(gctx, child.Fields.Subtasks)
			if err != nil {
				return err
			}
			out[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// subtasks attaches worklogs to each subtask. Subtasks are leaves.
func (s *Service) subtasks(ctx context.Context, raw []jira.Issue) ([]worklog.Issue, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]worklog.Issue, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, sub := range raw {
		g.Go(func() error {
			node, err := s.withWorklogs(gctx, sub)
			if err != nil {
				return err
			}
			out[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ownedWorklogs converts upstream entries, stamping each with its owner's id.
func ownedWorklogs(entries []jira.Worklog, ownerID string) []worklog.Worklog {
	out := make([]worklog.Worklog, 0, len(entries))
	for _, e := range entries {
		out = append(out, worklog.Worklog{
			Comment:          e.Comment,
			Created:          e.Created,
			Updated:          e.Updated,
			Started:          e.Started,
			TimeSpentSeconds: e.TimeSpentSeconds,
			IssueID:          ownerID,
		})
	}
	return out
}

func epicJQL(projectKey, cutoff string) string {
	return fmt.Sprintf("project = %q AND issuetype = Epic AND created >= %q", projectKey, cutoff)
}

func childJQL(epicKey string) string {
	return "parent = " + epicKey
}
