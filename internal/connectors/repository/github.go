package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-sync/internal/connectors/retry"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// GitHub pre-flight errors.
var (
	// ErrRepoNotFound indicates the repository was not found or is not accessible.
	ErrRepoNotFound = errors.New("github: repository not found")

	// ErrBranchNotFound indicates the configured branch was not found.
	ErrBranchNotFound = errors.New("github: branch not found")

	// ErrBadCredentials indicates GitHub rejected the token.
	ErrBadCredentials = errors.New("github: bad credentials")
)

// parseGitHubURL extracts owner and repository from a github.com remote URL.
// Accepts https://github.com/owner/repo(.git) and git@github.com:owner/repo(.git).
func parseGitHubURL(raw string) (owner, repo string, ok bool) {
	var p string
	switch {
	case strings.HasPrefix(raw, "git@github.com:"):
		p = strings.TrimPrefix(raw, "git@github.com:")
	default:
		u, err := url.Parse(raw)
		if err != nil || !strings.EqualFold(u.Hostname(), "github.com") {
			return "", "", false
		}
		p = strings.TrimPrefix(u.Path, "/")
	}

	parts := strings.Split(strings.TrimSuffix(strings.TrimSuffix(p, "/"), ".git"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// newGitHubClient creates an authenticated go-github client.
// A non-empty baseURL overrides the API endpoint.
func newGitHubClient(httpClient *http.Client, token, baseURL string) (*gh.Client, error) {
	client := gh.NewClient(httpClient).WithAuthToken(token)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: github api url: %w", domain.ErrConfiguration, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// checkBranch confirms that the repository and branch exist and that the
// token is accepted, before any clone is attempted.
func checkBranch(ctx context.Context, client *gh.Client, policy retry.Policy, owner, repo, branch string) error {
	return policy.Do(ctx, func(ctx context.Context) error {
		_, resp, err := client.Repositories.GetBranch(ctx, owner, repo, branch, 1)
		return classifyGitHubError(err, resp, owner+"/"+repo, branch)
	})
}

func classifyGitHubError(err error, resp *gh.Response, repo, branch string) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &retry.DelayedError{Err: err, Delay: time.Until(rateErr.Rate.Reset.Time)}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &retry.DelayedError{Err: err, Delay: abuseErr.GetRetryAfter()}
	}

	if resp == nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: github: %w", domain.ErrTransientNetwork, err)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: %w", domain.ErrAuthentication, ErrBadCredentials, err)
	case code == http.StatusNotFound:
		// GitHub reports both a missing repository and a missing branch as 404.
		var errResp *gh.ErrorResponse
		if errors.As(err, &errResp) && strings.Contains(strings.ToLower(errResp.Message), "branch") {
			return fmt.Errorf("%w: %w %q in %s", domain.ErrConfiguration, ErrBranchNotFound, branch, repo)
		}
		return fmt.Errorf("%w: %w: %s", domain.ErrConfiguration, ErrRepoNotFound, repo)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: github: access to %s denied: %w", domain.ErrAuthentication, repo, err)
	case retry.IsTransientStatus(code):
		return fmt.Errorf("%w: github: %w", domain.ErrTransientNetwork, err)
	default:
		return fmt.Errorf("%w: github: %w", domain.ErrConfiguration, err)
	}
}
