package github

import (
	"context"
	"strings"

	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/shurcooL/githubv4"
)

// FindMilestoneNumber looks up a milestone by title and returns its number,
// or 0 when no milestone matches. Open milestones win over closed ones with
// the same title.
func (c *Client) FindMilestoneNumber(ctx context.Context, repo types.Repository, title string) (int, error) {
	var q struct {
		Repository struct {
			Milestones struct {
				Nodes []struct {
					Number int
					Title  string
					State  githubv4.MilestoneState
				}
			} `graphql:"milestones(first: 50, query: $title, states: [OPEN, CLOSED])"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(repo.Owner),
		"name":  githubv4.String(repo.Name),
		"title": githubv4.String(title),
	}
	if err := c.GraphQL.Query(ctx, &q, variables); err != nil {
		return 0, err
	}

	number := 0
	for _, m := range q.Repository.Milestones.Nodes {
		if !strings.EqualFold(m.Title, title) {
			continue
		}
		if m.State == githubv4.MilestoneStateOpen {
			return m.Number, nil
		}
		if number == 0 {
			number = m.Number
		}
	}
	return number, nil
}
