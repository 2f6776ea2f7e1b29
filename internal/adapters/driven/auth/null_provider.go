package auth

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure NullTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*NullTokenProvider)(nil)

// NullTokenProvider is for sources that require no authentication,
// such as public repositories and public web pages.
type NullTokenProvider struct{}

// NewNullTokenProvider creates a token provider for no-auth sources.
func NewNullTokenProvider() *NullTokenProvider {
	return &NullTokenProvider{}
}

// GetToken returns an empty string since no authentication is needed.
func (p *NullTokenProvider) GetToken(_ context.Context) (string, error) {
	return "", nil
}

// Name returns an empty string since there is no credential.
func (p *NullTokenProvider) Name() string {
	return ""
}
