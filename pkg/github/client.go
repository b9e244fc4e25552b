package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Encoding selects how a new issue is written into the POST body.
type Encoding string

const (
	// EncodingForm sends application/x-www-form-urlencoded bodies.
	EncodingForm Encoding = "form"
	// EncodingJSON sends the JSON body api.github.com expects.
	EncodingJSON Encoding = "json"
)

// ParseEncoding maps a config value onto an Encoding. Empty means form.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingForm:
		return EncodingForm, nil
	case EncodingJSON:
		return EncodingJSON, nil
	default:
		return "", fmt.Errorf("unknown body encoding %q (want form or json)", s)
	}
}

// Config holds what is needed to talk to a GitHub-compatible host.
type Config struct {
	Token      string
	APIURL     string
	GraphQLURL string
	Encoding   Encoding
}

// Client wraps both the REST API client (go-github) and GraphQL client (githubv4)
type Client struct {
	REST     *github.Client
	GraphQL  *githubv4.Client
	Encoding Encoding
}

// NewClient creates a new GitHub client with both REST and GraphQL capabilities
func NewClient(cfg Config) (*Client, error) {
	var httpClient *http.Client

	if cfg.Token != "" {
		// Create an OAuth2 token source
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = http.DefaultClient
	}

	rest := github.NewClient(httpClient)
	if cfg.APIURL != "" {
		var err error
		rest, err = withAPIURL(rest, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", cfg.APIURL, err)
		}
	}

	graphql := githubv4.NewClient(httpClient)
	if cfg.GraphQLURL != "" {
		graphql = githubv4.NewEnterpriseClient(cfg.GraphQLURL, httpClient)
	}

	enc := cfg.Encoding
	if enc == "" {
		enc = EncodingForm
	}

	return &Client{
		REST:     rest,
		GraphQL:  graphql,
		Encoding: enc,
	}, nil
}

// versionedAPIPath matches base paths that already name an API version,
// such as /api/v1/ on GitHub-compatible forges.
var versionedAPIPath = regexp.MustCompile(`/api/v[0-9]+/?$`)

// withAPIURL points rest at apiURL. Enterprise roots get the /api/v3/ suffix
// from go-github; versioned API paths are used as they are.
func withAPIURL(rest *github.Client, apiURL string) (*github.Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, err
	}
	if !versionedAPIPath.MatchString(u.Path) {
		return rest.WithEnterpriseURLs(apiURL, apiURL)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	upload := *u
	rest.BaseURL = u
	rest.UploadURL = &upload
	return rest, nil
}

// GetAuthenticatedUser returns information about the authenticated user
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*github.User, error) {
	user, _, err := c.REST.Users.Get(ctx, "")
	return user, err
}
