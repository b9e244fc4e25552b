package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/google/go-github/v66/github"
	"github.com/google/go-querystring/query"
)

// IssueForm is the form-encoded body of an issue creation request.
type IssueForm struct {
	Title     string `url:"title"`
	Body      string `url:"body"`
	Milestone string `url:"milestone,omitempty"`
}

// issueJSON is the JSON body of an issue creation request. Milestone is a
// number when the submission carried one and the raw string otherwise.
type issueJSON struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Milestone any    `json:"milestone,omitempty"`
}

// createResponse picks the "errors" array out of a 2xx body. Some
// GitHub-compatible hosts report validation problems there.
type createResponse struct {
	Errors []github.Error `json:"errors"`
}

// ListIssues requests one page of issues for repo. An empty state leaves the
// server default (open).
func (c *Client) ListIssues(ctx context.Context, repo types.Repository, state string) ([]types.IssueInfo, error) {
	var opts *github.IssueListByRepoOptions
	if state != "" {
		opts = &github.IssueListByRepoOptions{State: state}
	}
	issues, _, err := c.REST.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, err
	}

	infos := make([]types.IssueInfo, 0, len(issues))
	for _, issue := range issues {
		infos = append(infos, issueInfo(issue))
	}
	return infos, nil
}

// GetIssue requests a single issue by number.
func (c *Client) GetIssue(ctx context.Context, repo types.Repository, number int) (*types.IssueDetailInfo, error) {
	issue, _, err := c.REST.Issues.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, err
	}
	return issueDetail(issue), nil
}

// CreateIssue posts a new issue. Validation errors reported by the server
// come back as field errors with a nil error; transport failures and other
// HTTP errors are returned as err.
func (c *Client) CreateIssue(ctx context.Context, repo types.Repository, submit types.IssueSubmit) (*types.IssueDetailInfo, []types.FieldError, error) {
	u := fmt.Sprintf("repos/%v/%v/issues", repo.Owner, repo.Name)

	req, err := c.newCreateRequest(u, submit)
	if err != nil {
		return nil, nil, err
	}

	var raw json.RawMessage
	_, err = c.REST.Do(ctx, req, &raw)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && len(errResp.Errors) > 0 {
			return nil, fieldErrors(errResp.Errors), nil
		}
		return nil, nil, err
	}

	if len(raw) == 0 {
		return nil, nil, nil
	}

	var envelope createResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fieldErrors(envelope.Errors), nil
	}

	var issue github.Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, nil, fmt.Errorf("failed to decode created issue: %w", err)
	}
	return issueDetail(&issue), nil, nil
}

func (c *Client) newCreateRequest(u string, submit types.IssueSubmit) (*http.Request, error) {
	milestone := strings.TrimSpace(submit.Milestone)

	if c.Encoding == EncodingJSON {
		body := issueJSON{Title: submit.Title, Body: submit.Body}
		if milestone != "" {
			if n, err := strconv.Atoi(milestone); err == nil {
				body.Milestone = n
			} else {
				body.Milestone = milestone
			}
		}
		return c.REST.NewRequest(http.MethodPost, u, body)
	}

	values, err := query.Values(IssueForm{
		Title:     submit.Title,
		Body:      submit.Body,
		Milestone: milestone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue form: %w", err)
	}
	encoded := values.Encode()

	req, err := c.REST.NewRequest(http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(strings.NewReader(encoded))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(encoded)), nil
	}
	req.ContentLength = int64(len(encoded))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func fieldErrors(errs []github.Error) []types.FieldError {
	out := make([]types.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, types.FieldError{
			Resource: e.Resource,
			Field:    e.Field,
			Code:     e.Code,
			Message:  e.Message,
		})
	}
	return out
}

func issueInfo(issue *github.Issue) types.IssueInfo {
	return types.IssueInfo{
		Number:   issue.GetNumber(),
		Title:    issue.GetTitle(),
		State:    issue.GetState(),
		Author:   issue.GetUser().GetLogin(),
		Comments: issue.GetComments(),
		URL:      issue.GetHTMLURL(),
		OpenedAt: issue.GetCreatedAt().Time,
	}
}

func issueDetail(issue *github.Issue) *types.IssueDetailInfo {
	detail := &types.IssueDetailInfo{
		IssueInfo: issueInfo(issue),
		Body:      issue.GetBody(),
		Milestone: issue.GetMilestone().GetTitle(),
		UpdatedAt: issue.GetUpdatedAt().Time,
	}
	for _, l := range issue.Labels {
		detail.Labels = append(detail.Labels, l.GetName())
	}
	for _, a := range issue.Assignees {
		detail.Assignees = append(detail.Assignees, a.GetLogin())
	}
	if issue.ClosedAt != nil {
		closed := issue.ClosedAt.Time
		detail.ClosedAt = &closed
	}
	return detail
}
