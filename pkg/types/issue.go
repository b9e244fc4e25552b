package types

import (
	"fmt"
	"strings"
	"time"
)

// MaxIssues is the most issues a list fetch keeps after sorting.
const MaxIssues = 10

// Repository identifies a GitHub repository as owner/name.
type Repository struct {
	Owner string `yaml:"owner" json:"owner"`
	Name  string `yaml:"name" json:"name"`
}

// ParseRepository parses an "owner/name" string.
func ParseRepository(s string) (Repository, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("repository %q must be in owner/repo format", s)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// IssueInfo is the summary of an issue shown in a list.
type IssueInfo struct {
	Number   int       `yaml:"number" json:"number"`
	Title    string    `yaml:"title" json:"title"`
	State    string    `yaml:"state" json:"state"`
	Author   string    `yaml:"author" json:"author"`
	Comments int       `yaml:"comments" json:"comments"`
	URL      string    `yaml:"url" json:"url"`
	OpenedAt time.Time `yaml:"opened_at" json:"opened_at"`
}

// IssueDetailInfo is the full view of a single issue.
type IssueDetailInfo struct {
	IssueInfo `yaml:",inline"`

	Body      string     `yaml:"body" json:"body"`
	Labels    []string   `yaml:"labels,omitempty" json:"labels,omitempty"`
	Assignees []string   `yaml:"assignees,omitempty" json:"assignees,omitempty"`
	Milestone string     `yaml:"milestone,omitempty" json:"milestone,omitempty"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
	ClosedAt  *time.Time `yaml:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// IssueSubmit is a new issue as entered by the user.
type IssueSubmit struct {
	Title     string `yaml:"title" json:"title"`
	Body      string `yaml:"body" json:"body"`
	Milestone string `yaml:"milestone" json:"milestone"`
}

// FieldError is one entry of the "errors" array in a GitHub error envelope.
type FieldError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
}

func (e FieldError) String() string {
	if e.Message != "" {
		return fmt.Sprintf("%s.%s: %s (%s)", e.Resource, e.Field, e.Code, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Field, e.Code)
}
