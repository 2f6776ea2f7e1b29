package driven

import "context"

// TokenProvider provides bearer credentials for authenticated API calls.
// Token acquisition and refresh happen outside this engine.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// Errors wrap domain.ErrAuthentication.
	GetToken(ctx context.Context) (string, error)

	// Name returns the credential name sources refer to.
	Name() string
}

// CredentialResolver looks up token providers by name.
type CredentialResolver interface {
	// Resolve returns the provider for name. An empty name returns a
	// provider that yields no token.
	Resolve(name string) (TokenProvider, error)
}
