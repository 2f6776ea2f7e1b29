package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-sync/internal/connectors/retry"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
	"github.com/custodia-labs/sercha-sync/internal/normalisers/html"
)

const (
	// UserAgent identifies sercha-sync to web servers.
	UserAgent = "sercha-sync (+https://github.com/custodia-labs/sercha-sync)"

	// MaxBodySize caps the bytes read from one response.
	MaxBodySize = 20 * 1024 * 1024

	// DefaultRequestsPerSecond is the sustained request rate per source.
	DefaultRequestsPerSecond = 5.0

	// DefaultBurst is the rate limiter burst.
	DefaultBurst = 5
)

// Export formats.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatHTML     = "html"
)

var formatExtensions = map[string]string{
	FormatMarkdown: ".md",
	"md":           ".md",
	FormatText:     ".txt",
	"txt":          ".txt",
	FormatHTML:     ".html",
}

// Ensure Adapter implements the interfaces.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.LinkExtractor = (*Adapter)(nil)
)

// Adapter syncs web pages reachable from seed URLs.
type Adapter struct {
	cfg      domain.SourceConfig
	provider driven.TokenProvider
	client   *http.Client
	limiter  *rate.Limiter
	retry    retry.Policy
	include  []*regexp.Regexp
	exclude  []*regexp.Regexp
	hosts    map[string]bool
	token    string
}

// New creates a web adapter. A nil provider sends no Authorization header.
func New(cfg domain.SourceConfig, provider driven.TokenProvider) (*Adapter, error) {
	a := &Adapter{
		cfg:      cfg,
		provider: provider,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		retry:    retry.NewPolicy(cfg.MaxRetries),
		hosts:    make(map[string]bool),
	}

	var err error
	if a.include, err = compilePatterns(cfg.Name, cfg.Include); err != nil {
		return nil, err
	}
	if a.exclude, err = compilePatterns(cfg.Name, cfg.Exclude); err != nil {
		return nil, err
	}
	for _, s := range cfg.Seeds {
		u, err := url.Parse(s.ID)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: source %q: invalid seed URL %q", domain.ErrConfiguration, cfg.Name, s.ID)
		}
		a.hosts[strings.ToLower(u.Host)] = true
	}
	return a, nil
}

func compilePatterns(source string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: source %q: invalid URL pattern %q: %w", domain.ErrConfiguration, source, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Type returns the source type.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTypeWeb
}

// Validate resolves the credential, if any. Pages are not requested.
func (a *Adapter) Validate(ctx context.Context) error {
	if a.provider == nil {
		return nil
	}
	token, err := a.provider.GetToken(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}
	a.token = token
	return nil
}

// Enumerate returns the seeds with normalised URLs.
func (a *Adapter) Enumerate(_ context.Context) ([]domain.Seed, error) {
	seeds := make([]domain.Seed, 0, len(a.cfg.Seeds))
	for _, s := range a.cfg.Seeds {
		id, ok := a.NormaliseIdentifier(s.ID)
		if !ok {
			return nil, fmt.Errorf("%w: source %q: %q is not an http(s) URL", domain.ErrConfiguration, a.cfg.Name, s.ID)
		}
		s.ID = id
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// Fetch GETs one page. Non-2xx responses are item errors; 429 and 5xx are
// retried first.
func (a *Adapter) Fetch(ctx context.Context, id string) (*domain.RawContent, error) {
	var raw *domain.RawContent
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		raw, err = a.get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (a *Adapter) get(ctx context.Context, id string) (*domain.RawContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrItemFetch, id, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if a.token != "" && a.hosts[strings.ToLower(req.URL.Host)] {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrTransientNetwork, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		statusErr := &StatusError{URL: id, StatusCode: resp.StatusCode}
		if retry.IsTransientStatus(resp.StatusCode) {
			delay := retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			return nil, &retry.DelayedError{Err: statusErr, Delay: delay}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrItemFetch, statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrTransientNetwork, id, err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrItemFetch, id, MaxBodySize)
	}

	mediaType := "application/octet-stream"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	} else {
		mediaType = http.DetectContentType(body)
		if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = mt
		}
	}

	raw := &domain.RawContent{
		Identifier: id,
		Kind:       mediaType,
		Body:       body,
		Metadata: map[string]string{
			"final_url":    resp.Request.URL.String(),
			"content_type": resp.Header.Get("Content-Type"),
		},
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		raw.ModifiedAt = lm
	}
	if isHTML(mediaType) {
		if doc, err := html.Parse(body); err == nil {
			raw.Title = doc.Title()
		}
	}
	return raw, nil
}

func isHTML(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// ExtractLinks returns the same-host links of an HTML page that pass the
// include and exclude patterns, normalised and in document order.
func (a *Adapter) ExtractLinks(raw *domain.RawContent) []string {
	if !isHTML(raw.Kind) {
		return nil
	}
	doc, err := html.Parse(raw.Body)
	if err != nil {
		logger.Debug("Parsing %s for links: %v", raw.Identifier, err)
		return nil
	}

	base, err := url.Parse(raw.Identifier)
	if err != nil {
		return nil
	}
	if final := raw.Metadata["final_url"]; final != "" {
		if u, err := url.Parse(final); err == nil {
			base = u
		}
	}
	if href := doc.Base(); href != "" {
		if u, err := base.Parse(href); err == nil {
			base = u
		}
	}

	seen := make(map[string]bool)
	var links []string
	for _, href := range doc.Links() {
		u, err := base.Parse(href)
		if err != nil {
			continue
		}
		id, ok := a.NormaliseIdentifier(u.String())
		if !ok || seen[id] || !a.follow(id) {
			continue
		}
		seen[id] = true
		links = append(links, id)
	}
	return links
}

// follow applies the same-host rule and the URL patterns.
func (a *Adapter) follow(id string) bool {
	u, err := url.Parse(id)
	if err != nil || !a.hosts[strings.ToLower(u.Host)] {
		return false
	}
	for _, re := range a.exclude {
		if re.MatchString(id) {
			return false
		}
	}
	if len(a.include) == 0 {
		return true
	}
	for _, re := range a.include {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

// NormaliseIdentifier strips the fragment, lowercases scheme and host and
// rejects anything but absolute http(s) URLs.
func (a *Adapter) NormaliseIdentifier(identifier string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(identifier))
	if err != nil {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// Convert renders an HTML page in format (markdown, text or html). Other
// content types are copied unchanged and keep their own extension.
func (a *Adapter) Convert(raw *domain.RawContent, format string) (*domain.FetchedItem, error) {
	if format == "" {
		format = FormatMarkdown
	}
	ext, ok := formatExtensions[format]
	if !ok {
		return nil, fmt.Errorf("%w: format %q is not supported for web pages (supported: markdown, text, html)",
			domain.ErrConfiguration, format)
	}

	u, err := url.Parse(raw.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrItemFetch, raw.Identifier, err)
	}

	content := raw.Body
	if isHTML(raw.Kind) {
		switch ext {
		case ".md":
			md, err := html.ToMarkdown(raw.Body)
			if err != nil {
				return nil, err
			}
			content = []byte(md + "\n")
		case ".txt":
			text, err := html.ToText(raw.Body)
			if err != nil {
				return nil, err
			}
			content = []byte(text + "\n")
		}
	}

	return &domain.FetchedItem{
		RelativePath:     RelativePath(u, ext, !isHTML(raw.Kind)),
		Content:          content,
		SourceIdentifier: raw.Identifier,
		ModifiedAt:       raw.ModifiedAt,
	}, nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}
