package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-sync/internal/connectors/google"
	"github.com/custodia-labs/sercha-sync/internal/connectors/retry"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// MaxExportSize is the Drive API limit on exported content.
const MaxExportSize = 10 * 1024 * 1024

// Ensure Adapter implements the interfaces.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.LinkExtractor = (*Adapter)(nil)
)

// Adapter syncs Google Docs, Sheets and Slides.
type Adapter struct {
	cfg      domain.SourceConfig
	provider driven.TokenProvider
	service  *drive.Service
	limiter  *google.RateLimiter
	retry    retry.Policy

	// formats are the export formats requested anywhere in the source.
	// The empty string stands for each kind's default.
	formats []string
}

// New creates a document-suite adapter for cfg.
// Extra client options are passed to the Drive service.
func New(ctx context.Context, cfg domain.SourceConfig, provider driven.TokenProvider, opts ...option.ClientOption) (*Adapter, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: source %q: document-suite sources require credentials",
			domain.ErrConfiguration, cfg.Name)
	}

	svc, err := google.NewDriveService(ctx, google.NewTokenSource(ctx, provider), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create drive service: %w", domain.ErrConfiguration, err)
	}

	return &Adapter{
		cfg:      cfg,
		provider: provider,
		service:  svc,
		limiter:  google.NewRateLimiter(),
		retry:    retry.NewPolicy(cfg.MaxRetries),
		formats:  requestedFormats(cfg),
	}, nil
}

func requestedFormats(cfg domain.SourceConfig) []string {
	seen := map[string]bool{cfg.Format: true}
	formats := []string{cfg.Format}
	for _, s := range cfg.Seeds {
		if f := cfg.SeedFormat(s); !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats
}

// Type returns the source type.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTypeDocumentSuite
}

// Validate checks the credential against the Drive API.
func (a *Adapter) Validate(ctx context.Context) error {
	token, err := a.provider.GetToken(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}
	if token == "" {
		return fmt.Errorf("%w: credential %q provided an empty token", domain.ErrAuthentication, a.provider.Name())
	}

	var about *drive.About
	err = a.call(ctx, func(ctx context.Context) error {
		var err error
		about, err = a.service.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrItemFetch):
		return fmt.Errorf("%w: drive access check failed: %w", domain.ErrAuthentication, err)
	default:
		return err
	}

	if about.User != nil {
		logger.Debug("Authenticated to Google Drive as %s", about.User.EmailAddress)
	}
	return nil
}

// Enumerate returns the configured seeds with their IDs extracted from URLs.
func (a *Adapter) Enumerate(_ context.Context) ([]domain.Seed, error) {
	seeds := make([]domain.Seed, 0, len(a.cfg.Seeds))
	for _, s := range a.cfg.Seeds {
		id, ok := ExtractID(s.ID)
		if !ok {
			return nil, fmt.Errorf("%w: source %q: %q is not a document ID or URL",
				domain.ErrConfiguration, a.cfg.Name, s.ID)
		}
		s.ID = id
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// Fetch reads a file's metadata and exports its link rendering plus every
// requested format the file's kind supports.
func (a *Adapter) Fetch(ctx context.Context, id string) (*domain.RawContent, error) {
	var file *drive.File
	err := a.call(ctx, func(ctx context.Context) error {
		var err error
		file, err = a.service.Files.Get(id).
			Fields("id, name, mimeType, modifiedTime").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	kind, ok := KindForMimeType(file.MimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s has MIME type %s, not a document, spreadsheet or presentation",
			domain.ErrItemFetch, id, file.MimeType)
	}

	raw := &domain.RawContent{
		Identifier: id,
		Kind:       string(kind),
		Title:      file.Name,
		Renditions: make(map[string][]byte),
		Metadata:   map[string]string{"mime_type": file.MimeType},
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		raw.ModifiedAt = t
	}

	link := kind.linkExport()
	body, err := a.export(ctx, id, link.MimeType)
	if err != nil {
		return nil, err
	}
	raw.Body = body
	raw.Renditions[link.Format] = body

	for _, f := range a.formats {
		exp, err := kind.ResolveExport(f)
		if err != nil {
			// Reported by Convert for the items that asked for it.
			continue
		}
		if _, done := raw.Renditions[exp.Format]; done {
			continue
		}
		content, err := a.export(ctx, id, exp.MimeType)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Convert reports the gap for the items that asked for this format.
			logger.Debug("Skipping %s rendition of %s: %v", exp.Format, id, err)
			continue
		}
		raw.Renditions[exp.Format] = content
	}

	return raw, nil
}

func (a *Adapter) export(ctx context.Context, id, mimeType string) ([]byte, error) {
	var content []byte
	err := a.call(ctx, func(ctx context.Context) error {
		resp, err := a.service.Files.Export(id, mimeType).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		content, err = io.ReadAll(io.LimitReader(resp.Body, MaxExportSize+1))
		if err != nil {
			return err
		}
		if len(content) > MaxExportSize {
			return fmt.Errorf("%w: %w: %s exceeds %d bytes", domain.ErrItemFetch, google.ErrExportTooLarge, id, MaxExportSize)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export %s as %s: %w", id, mimeType, err)
	}
	return content, nil
}

// call runs one rate-limited, retried API request bounded by the source timeout.
func (a *Adapter) call(ctx context.Context, op func(ctx context.Context) error) error {
	return a.retry.Do(ctx, func(ctx context.Context) error {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		err := op(reqCtx)
		if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: request timed out after %v", domain.ErrTransientNetwork, a.cfg.Timeout)
		}
		err = google.WrapError(err)

		var rl *google.RateLimitError
		if errors.As(err, &rl) && rl.Delay > 0 {
			a.limiter.RecordRateLimitError(rl.Delay)
		}
		return err
	})
}

// Convert selects the rendition for format and names the output file
// <slug(title)>-<id>.<format>.
func (a *Adapter) Convert(raw *domain.RawContent, format string) (*domain.FetchedItem, error) {
	exp, err := Kind(raw.Kind).ResolveExport(format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Identifier, err)
	}
	content, ok := raw.Renditions[exp.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s was not exported as %s", domain.ErrItemFetch, raw.Identifier, exp.Format)
	}

	return &domain.FetchedItem{
		RelativePath:     fmt.Sprintf("%s-%s.%s", Slug(raw.Title), raw.Identifier, exp.Format),
		Content:          content,
		SourceIdentifier: raw.Identifier,
		ModifiedAt:       raw.ModifiedAt,
	}, nil
}

// ExtractLinks returns the IDs of other documents referenced by raw.
func (a *Adapter) ExtractLinks(raw *domain.RawContent) []string {
	var out []string
	for _, id := range FindLinkedIDs(raw.Body) {
		if id != raw.Identifier {
			out = append(out, id)
		}
	}
	return out
}

// NormaliseIdentifier extracts the file ID from an ID or URL.
func (a *Adapter) NormaliseIdentifier(identifier string) (string, bool) {
	return ExtractID(identifier)
}

// Close releases adapter resources. The Drive client holds none.
func (a *Adapter) Close() error {
	return nil
}
