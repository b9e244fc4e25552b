package issues

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goblinsan/gh-issues/pkg/dialog"
	ghclient "github.com/goblinsan/gh-issues/pkg/github"
	"github.com/goblinsan/gh-issues/pkg/logger"
	"github.com/goblinsan/gh-issues/pkg/repo"
	"github.com/goblinsan/gh-issues/pkg/types"
)

// ErrInvalidMilestone is returned by Create when the server rejects the
// submitted milestone. The user has already been shown a dialog.
var ErrInvalidMilestone = errors.New("invalid milestone information")

const (
	milestoneField        = "milestone"
	invalidMilestoneTitle = "Error"
	invalidMilestoneText  = "Invalid milestone information."
)

// GitHubClient defines the interface for GitHub operations needed by the service.
type GitHubClient interface {
	ListIssues(ctx context.Context, repo types.Repository, state string) ([]types.IssueInfo, error)
	GetIssue(ctx context.Context, repo types.Repository, number int) (*types.IssueDetailInfo, error)
	CreateIssue(ctx context.Context, repo types.Repository, submit types.IssueSubmit) (*types.IssueDetailInfo, []types.FieldError, error)
	FindMilestoneNumber(ctx context.Context, repo types.Repository, title string) (int, error)
}

// Ensure *github.Client satisfies the interface at compile time.
var _ GitHubClient = (*ghclient.Client)(nil)

// Options configures the behavior of a Service.
type Options struct {
	// State filters listed issues (open, closed, all). Empty uses the server default.
	State string
}

// Service fetches and creates issues of the selected repository.
type Service struct {
	client GitHubClient
	repos  repo.Selector
	dialog dialog.Dialog
	opts   Options
}

func NewService(client GitHubClient, repos repo.Selector, dlg dialog.Dialog, opts Options) *Service {
	return &Service{
		client: client,
		repos:  repos,
		dialog: dlg,
		opts:   opts,
	}
}

// FetchList returns the newest issues of the selected repository, at most
// types.MaxIssues of them, newest first.
func (s *Service) FetchList(ctx context.Context) ([]types.IssueInfo, error) {
	r, err := s.repos.Selected(ctx)
	if err != nil {
		return nil, err
	}
	ctx = logger.With(ctx, "repo", r.String())

	issues, err := s.client.ListIssues(ctx, r, s.opts.State)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s: %w", r, err)
	}
	logger.Debug(ctx, "fetched issues", "count", len(issues))

	// No pagination: keep only the newest page worth.
	return SortAndLimit(issues, types.MaxIssues), nil
}

// FetchDetail returns one issue of the selected repository.
func (s *Service) FetchDetail(ctx context.Context, number int) (*types.IssueDetailInfo, error) {
	r, err := s.repos.Selected(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.client.GetIssue(ctx, r, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue #%d of %s: %w", number, r, err)
	}
	return detail, nil
}

// Create submits a new issue to the selected repository. If the server
// rejects the milestone an error dialog is shown and ErrInvalidMilestone is
// returned. Other validation errors are logged and otherwise ignored.
func (s *Service) Create(ctx context.Context, submit types.IssueSubmit) (*types.IssueDetailInfo, error) {
	r, err := s.repos.Selected(ctx)
	if err != nil {
		return nil, err
	}
	ctx = logger.With(ctx, "repo", r.String())

	submit.Milestone = strings.TrimSpace(submit.Milestone)
	if submit.Milestone != "" {
		submit.Milestone = s.resolveMilestone(ctx, r, submit.Milestone)
	}

	issue, fieldErrs, err := s.client.CreateIssue(ctx, r, submit)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue in %s: %w", r, err)
	}

	if MilestoneRejected(fieldErrs) {
		s.dialog.ShowError(invalidMilestoneTitle, invalidMilestoneText)
		return nil, ErrInvalidMilestone
	}
	for _, fe := range fieldErrs {
		logger.Warn(ctx, "ignoring validation error", "error", fe.String())
	}

	if issue != nil {
		logger.Info(ctx, "created issue", "number", issue.Number)
	}
	return issue, nil
}

// resolveMilestone turns a milestone title into its number. Numbers, unknown
// titles and lookup failures are passed through unchanged for the server to
// judge.
func (s *Service) resolveMilestone(ctx context.Context, r types.Repository, milestone string) string {
	if _, err := strconv.Atoi(milestone); err == nil {
		return milestone
	}

	n, err := s.client.FindMilestoneNumber(ctx, r, milestone)
	if err != nil {
		logger.Warn(ctx, "milestone lookup failed", "milestone", milestone, "error", err)
		return milestone
	}
	if n == 0 {
		logger.Debug(ctx, "no milestone with that title", "milestone", milestone)
		return milestone
	}
	return strconv.Itoa(n)
}

// MilestoneRejected reports whether any validation error concerns the milestone field.
func MilestoneRejected(errs []types.FieldError) bool {
	return slices.ContainsFunc(errs, func(e types.FieldError) bool {
		return e.Field == milestoneField
	})
}

// SortAndLimit returns a copy of issues ordered newest first, keeping at most
// n entries. Issues opened at the same time keep their input order.
func SortAndLimit(issues []types.IssueInfo, n int) []types.IssueInfo {
	sorted := slices.Clone(issues)
	slices.SortStableFunc(sorted, func(a, b types.IssueInfo) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
