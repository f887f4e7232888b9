// Package provider implements the thin GitHub provider client: repository
// metadata, contributors, branches, user info, credential validation, and
// rate-limit snapshots for the Token Pool.
package provider

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bmeddeb/gitfleet/pkg/token"
)

// RepositorySummary is the subset of forge repository metadata this
// client's callers care about.
type RepositorySummary struct {
	FullName      string
	Description   string
	DefaultBranch string
	Language      string
	Stars         int
	Forks         int
	Topics        []string
	Private       bool
	Archived      bool
}

// Contributor is one entry of a repository's contributor list.
type Contributor struct {
	Login         string
	Contributions int
}

// BranchRef is one branch of a repository.
type BranchRef struct {
	Name      string
	CommitSHA string
	Protected bool
}

// UserProfile is the authenticated user's profile.
type UserProfile struct {
	Login string
	Name  string
	Email string
}

// Client is a thin wrapper over go-github, attributing every call to a
// single credential chosen by the Token Pool.
type Client struct {
	gh     *github.Client
	logger *zap.Logger
}

// New constructs a Client authenticated with cred via OAuth2 bearer auth,
// the same scheme go-github expects for a personal access token.
func New(ctx context.Context, cred token.Credential, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Secret})
	httpClient := oauth2.NewClient(ctx, ts)

	return &Client{gh: github.NewClient(httpClient), logger: logger}
}

// FetchRepository returns metadata for owner/name.
func (c *Client) FetchRepository(ctx context.Context, owner, name string) (RepositorySummary, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return RepositorySummary{}, c.wrap(resp, fmt.Errorf("fetch repository %s/%s: %w", owner, name, err))
	}

	return RepositorySummary{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Language:      repo.GetLanguage(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		Topics:        repo.Topics,
		Private:       repo.GetPrivate(),
		Archived:      repo.GetArchived(),
	}, nil
}

// FetchContributors lists owner/name's contributors.
func (c *Client) FetchContributors(ctx context.Context, owner, name string) ([]Contributor, error) {
	contributors, resp, err := c.gh.Repositories.ListContributors(ctx, owner, name, nil)
	if err != nil {
		return nil, c.wrap(resp, fmt.Errorf("fetch contributors for %s/%s: %w", owner, name, err))
	}

	out := make([]Contributor, 0, len(contributors))
	for _, contrib := range contributors {
		out = append(out, Contributor{Login: contrib.GetLogin(), Contributions: contrib.GetContributions()})
	}
	return out, nil
}

// FetchBranches lists owner/name's branches.
func (c *Client) FetchBranches(ctx context.Context, owner, name string) ([]BranchRef, error) {
	branches, resp, err := c.gh.Repositories.ListBranches(ctx, owner, name, nil)
	if err != nil {
		return nil, c.wrap(resp, fmt.Errorf("fetch branches for %s/%s: %w", owner, name, err))
	}

	out := make([]BranchRef, 0, len(branches))
	for _, b := range branches {
		ref := BranchRef{Name: b.GetName(), Protected: b.GetProtected()}
		if b.Commit != nil {
			ref.CommitSHA = b.Commit.GetSHA()
		}
		out = append(out, ref)
	}
	return out, nil
}

// FetchUserInfo returns the authenticated user's profile.
func (c *Client) FetchUserInfo(ctx context.Context) (UserProfile, error) {
	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return UserProfile{}, c.wrap(resp, fmt.Errorf("fetch user info: %w", err))
	}

	return UserProfile{Login: user.GetLogin(), Name: user.GetName(), Email: user.GetEmail()}, nil
}

// ValidateCredentials reports whether the configured credential is
// currently accepted by the remote, without surfacing an error for the
// ordinary case of a rejected token.
func (c *Client) ValidateCredentials(ctx context.Context) (bool, error) {
	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && resp.StatusCode == 401 {
			return false, nil
		}
		return false, fmt.Errorf("validate credentials: %w", err)
	}
	return true, nil
}

// RateLimit fetches the current rate-limit snapshot and shapes it into the
// Observation the Token Pool's Record expects.
func (c *Client) RateLimit(ctx context.Context) (token.Observation, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return token.Observation{}, fmt.Errorf("fetch rate limit: %w", err)
	}

	core := limits.GetCore()
	return token.Observation{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		ResetUnix: core.Reset.Unix(),
		Used:      core.Limit - core.Remaining,
	}, nil
}

// wrap folds a go-github response's rate-limit headers into the returned
// error's log context; the Observation itself is recorded by callers that
// have access to the Token Pool (the client is credential-agnostic).
func (c *Client) wrap(resp *github.Response, err error) error {
	if resp != nil {
		c.logger.Debug("provider call failed",
			zap.Int("status", resp.StatusCode),
			zap.Int("rate_remaining", resp.Rate.Remaining),
			zap.Error(err),
		)
	}
	return err
}
