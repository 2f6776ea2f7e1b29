package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/connectors/retry"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// KindFile is the RawContent kind of repository files.
const KindFile = "file"

// A clone attempt may run for cloneTimeoutFactor request timeouts, and never
// less than minCloneTimeout.
const (
	cloneTimeoutFactor = 20
	minCloneTimeout    = 2 * time.Minute
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter syncs the files of one branch of a git repository.
type Adapter struct {
	cfg      domain.SourceConfig
	provider driven.TokenProvider
	runner   Runner
	matcher  *Matcher
	retry    retry.Policy
	workDir  string

	// cloneTimeout bounds each clone attempt.
	cloneTimeout time.Duration

	// githubAPI overrides the GitHub API endpoint.
	githubAPI  string
	httpClient *http.Client

	mu       sync.Mutex
	checkout string
	root     string
	commit   string
}

// New creates a repository adapter. Checkouts are made under workDir.
// A nil provider means the repository is public.
func New(cfg domain.SourceConfig, provider driven.TokenProvider, workDir string) (*Adapter, error) {
	matcher, err := NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", cfg.Name, err)
	}
	if workDir == "" {
		workDir = os.TempDir()
	}

	return &Adapter{
		cfg:        cfg,
		provider:   provider,
		runner:     ExecRunner{},
		matcher:    matcher,
		retry:        retry.NewPolicy(cfg.MaxRetries),
		workDir:      workDir,
		cloneTimeout: cloneTimeout(cfg.Timeout),
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func cloneTimeout(request time.Duration) time.Duration {
	return max(request*cloneTimeoutFactor, minCloneTimeout)
}

// Type returns the source type.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTypeRepository
}

func (a *Adapter) token(ctx context.Context) (string, error) {
	if a.provider == nil {
		return "", nil
	}
	token, err := a.provider.GetToken(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}
	return token, nil
}

// Validate checks the repository and branch through the GitHub API when the
// remote is on github.com and a credential is configured.
func (a *Adapter) Validate(ctx context.Context) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	owner, repo, ok := parseGitHubURL(a.cfg.URL)
	if !ok || token == "" {
		return nil
	}

	client, err := newGitHubClient(a.httpClient, token, a.githubAPI)
	if err != nil {
		return err
	}
	if err := checkBranch(ctx, client, a.retry, owner, repo, a.cfg.Branch); err != nil {
		return err
	}
	logger.Debug("GitHub branch %s/%s@%s is reachable", owner, repo, a.cfg.Branch)
	return nil
}

// Enumerate clones the branch and returns every selected file as a seed.
func (a *Adapter) Enumerate(ctx context.Context) ([]domain.Seed, error) {
	if err := a.clone(ctx); err != nil {
		return nil, err
	}

	var seeds []domain.Seed
	err := filepath.WalkDir(a.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(a.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !a.matcher.Match(rel) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !a.keepSymlink(p, rel) {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		seeds = append(seeds, domain.Seed{ID: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk checkout: %w", err)
	}

	logger.Info("Selected %d files from %s@%s (%s)", len(seeds), a.cfg.URL, a.cfg.Branch, shortCommit(a.commit))
	return seeds, nil
}

// keepSymlink drops dangling links and links to directories. Links that
// escape the checkout are kept so Fetch reports them as item errors.
func (a *Adapter) keepSymlink(p, rel string) bool {
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		logger.Debug("Skipping dangling symlink %s", rel)
		return false
	}
	if !within(a.root, target) {
		return true
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		logger.Debug("Skipping symlink %s to a directory", rel)
		return false
	}
	return true
}

func (a *Adapter) clone(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.checkout != "" {
		return nil
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return fmt.Errorf("create checkout directory: %w", err)
	}
	scratch, err := os.MkdirTemp(a.workDir, a.cfg.Name+"-*")
	if err != nil {
		return fmt.Errorf("create checkout directory: %w", err)
	}
	dest := filepath.Join(scratch, "repo")

	withToken := token != "" && strings.HasPrefix(a.cfg.URL, "https://")
	var env []string
	if withToken {
		env = []string{tokenEnv + "=" + token}
	}

	err = a.retry.Do(ctx, func(ctx context.Context) error {
		// A failed attempt may leave a partial tree behind.
		if err := os.RemoveAll(dest); err != nil {
			return err
		}
		attemptCtx, cancel := context.WithTimeout(ctx, a.cloneTimeout)
		defer cancel()

		_, err := a.runner.Run(attemptCtx, scratch, env, cloneArgs(a.cfg.URL, a.cfg.Branch, dest, withToken)...)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case attemptCtx.Err() != nil:
			return fmt.Errorf("%w: git clone timed out after %s", domain.ErrTransientNetwork, a.cloneTimeout)
		}
		return classifyGitError(err)
	})
	if err != nil {
		_ = os.RemoveAll(scratch)
		return fmt.Errorf("clone %s@%s: %w", a.cfg.URL, a.cfg.Branch, err)
	}

	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		_ = os.RemoveAll(scratch)
		return fmt.Errorf("resolve checkout: %w", err)
	}

	a.checkout = scratch
	a.root = root
	revCtx, cancel := context.WithTimeout(ctx, a.cloneTimeout)
	defer cancel()
	if out, err := a.runner.Run(revCtx, root, nil, "rev-parse", "HEAD"); err == nil {
		a.commit = strings.TrimSpace(string(out))
	}
	return nil
}

// Fetch reads one file of the checkout, following symlinks that stay inside it.
func (a *Adapter) Fetch(ctx context.Context, id string) (*domain.RawContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	root, commit := a.root, a.commit
	a.mu.Unlock()
	if root == "" {
		return nil, fmt.Errorf("%w: %s: repository not checked out", domain.ErrItemFetch, id)
	}

	full, err := domain.JoinRelative(root, id)
	if err != nil {
		return nil, err
	}
	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrItemFetch, id, err)
	}
	if !within(root, target) {
		return nil, fmt.Errorf("%w: %s links outside the repository", domain.ErrPathEscape, id)
	}

	body, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrItemFetch, id, err)
	}

	return &domain.RawContent{
		Identifier: id,
		Kind:       KindFile,
		Title:      path.Base(id),
		Body:       body,
		Metadata: map[string]string{
			"mime_type": detectMIMEType(id),
			"commit":    commit,
			"branch":    a.cfg.Branch,
		},
	}, nil
}

// Convert copies the file verbatim. Repository sources have no export formats,
// so format is ignored.
func (a *Adapter) Convert(raw *domain.RawContent, _ string) (*domain.FetchedItem, error) {
	return &domain.FetchedItem{
		RelativePath:     raw.Identifier,
		Content:          raw.Body,
		SourceIdentifier: raw.Identifier,
		ModifiedAt:       raw.ModifiedAt,
	}, nil
}

// Close removes the scratch checkout.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.checkout == "" {
		return nil
	}
	err := os.RemoveAll(a.checkout)
	a.checkout, a.root = "", ""
	return err
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	if commit == "" {
		return "unknown commit"
	}
	return commit
}

// detectMIMEType determines MIME type from file extension.
func detectMIMEType(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}
