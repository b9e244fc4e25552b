// Package repo decides which repository the issue commands operate on.
package repo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/goblinsan/gh-issues/pkg/types"
)

// ErrNoRepository is returned when no selector could pick a repository.
var ErrNoRepository = errors.New("no repository selected: pass --repo owner/name or run inside a clone with a GitHub remote")

// Selector yields the currently selected repository.
type Selector interface {
	Selected(ctx context.Context) (types.Repository, error)
}

// Static always selects the same repository.
type Static struct {
	Repository string
}

func (s Static) Selected(_ context.Context) (types.Repository, error) {
	if strings.TrimSpace(s.Repository) == "" {
		return types.Repository{}, ErrNoRepository
	}
	return types.ParseRepository(s.Repository)
}

// GitRemote selects the repository a remote of a local clone points at.
type GitRemote struct {
	// Path is any directory inside the working tree.
	Path string
	// Remote defaults to "origin".
	Remote string
}

func (g GitRemote) Selected(_ context.Context) (types.Repository, error) {
	path := g.Path
	if path == "" {
		path = "."
	}
	name := g.Remote
	if name == "" {
		name = git.DefaultRemoteName
	}

	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return types.Repository{}, ErrNoRepository
		}
		return types.Repository{}, fmt.Errorf("open git repository: %w", err)
	}

	remote, err := r.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return types.Repository{}, ErrNoRepository
		}
		return types.Repository{}, fmt.Errorf("read remote %q: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return types.Repository{}, fmt.Errorf("remote %q has no url", name)
	}
	return ParseRemoteURL(urls[0])
}

// Chain returns the first repository any of its selectors yields. Selectors
// that report ErrNoRepository are skipped; other errors stop the chain.
type Chain []Selector

func (c Chain) Selected(ctx context.Context) (types.Repository, error) {
	for _, s := range c {
		repo, err := s.Selected(ctx)
		if err == nil {
			return repo, nil
		}
		if !errors.Is(err, ErrNoRepository) {
			return types.Repository{}, err
		}
	}
	return types.Repository{}, ErrNoRepository
}

// ParseRemoteURL extracts owner/name from a git remote url. It accepts
// https and ssh urls as well as the scp-like "git@host:owner/name" form.
func ParseRemoteURL(raw string) (types.Repository, error) {
	raw = strings.TrimSpace(raw)

	var path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return types.Repository{}, fmt.Errorf("parse remote url %q: %w", raw, err)
		}
		path = u.Path
	} else if i := strings.Index(raw, ":"); i > 0 {
		path = raw[i+1:]
	} else {
		return types.Repository{}, fmt.Errorf("unsupported remote url %q", raw)
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	repo, err := types.ParseRepository(path)
	if err != nil {
		return types.Repository{}, fmt.Errorf("remote url %q: %w", raw, err)
	}
	return repo, nil
}
