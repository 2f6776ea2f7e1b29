package connectors

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-sync/internal/connectors/google/docs"
	"github.com/custodia-labs/sercha-sync/internal/connectors/repository"
	"github.com/custodia-labs/sercha-sync/internal/connectors/web"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.AdapterFactory = (*Factory)(nil)

// Factory creates the adapter matching a source's type.
type Factory struct {
	credentials driven.CredentialResolver
	workDir     string
	googleOpts  []option.ClientOption
}

// NewFactory creates an adapter factory. Repository checkouts are made under
// workDir. Extra Google client options are passed to every Drive client.
func NewFactory(credentials driven.CredentialResolver, workDir string, googleOpts ...option.ClientOption) *Factory {
	return &Factory{
		credentials: credentials,
		workDir:     workDir,
		googleOpts:  googleOpts,
	}
}

// Create builds the adapter for cfg.
func (f *Factory) Create(ctx context.Context, cfg domain.SourceConfig) (driven.SourceAdapter, error) {
	provider, err := f.tokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case domain.SourceTypeDocumentSuite:
		return docs.New(ctx, cfg, provider, f.googleOpts...)
	case domain.SourceTypeRepository:
		return repository.New(cfg, provider, f.workDir)
	case domain.SourceTypeWeb:
		return web.New(cfg, provider)
	default:
		return nil, fmt.Errorf("%w: source %q: %w %q", domain.ErrConfiguration, cfg.Name, domain.ErrUnsupportedType, cfg.Type)
	}
}

// tokenProvider resolves the source's credential. Sources without one get a
// nil provider.
func (f *Factory) tokenProvider(cfg domain.SourceConfig) (driven.TokenProvider, error) {
	if cfg.Credentials == "" {
		return nil, nil
	}
	if f.credentials == nil {
		return nil, fmt.Errorf("%w: source %q: credential %q: no credentials configured",
			domain.ErrConfiguration, cfg.Name, cfg.Credentials)
	}
	provider, err := f.credentials.Resolve(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", cfg.Name, err)
	}
	return provider, nil
}
