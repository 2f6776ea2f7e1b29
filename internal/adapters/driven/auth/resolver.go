package auth

import (
	"fmt"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Resolver implements the CredentialResolver interface.
var _ driven.CredentialResolver = (*Resolver)(nil)

// Resolver maps credential names from the configuration to token providers.
type Resolver struct {
	providers map[string]driven.TokenProvider
}

// NewResolver creates a resolver for the configured credentials.
// Invalid credentials are left out, so only the sources referencing them
// fail to resolve; the first of duplicate names wins.
func NewResolver(creds []domain.Credential) *Resolver {
	r := &Resolver{providers: make(map[string]driven.TokenProvider, len(creds))}
	for _, c := range creds {
		if err := c.Validate(); err != nil {
			logger.Debug("Skipping credential %q: %v", c.Name, err)
			continue
		}
		if _, dup := r.providers[c.Name]; dup {
			logger.Debug("Skipping duplicate credential %q", c.Name)
			continue
		}
		r.providers[c.Name] = NewTokenProvider(c)
	}
	return r
}

// NewTokenProvider creates the provider matching how the credential supplies its token.
func NewTokenProvider(c domain.Credential) driven.TokenProvider {
	switch c.Method() {
	case domain.CredentialEnv:
		return NewEnvTokenProvider(c.Name, c.TokenEnv)
	case domain.CredentialFile:
		return NewFileTokenProvider(c.Name, c.TokenFile)
	default:
		return NewStaticTokenProvider(c.Name, c.Token)
	}
}

// Resolve returns the provider for name.
// Returns NullTokenProvider for sources without credentials.
func (r *Resolver) Resolve(name string) (driven.TokenProvider, error) {
	if name == "" {
		return NewNullTokenProvider(), nil
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown credential %q", domain.ErrConfiguration, name)
	}
	return p, nil
}

// Has reports whether a credential name is configured.
func (r *Resolver) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}
