package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure the providers implement the TokenProvider interface.
var (
	_ driven.TokenProvider = (*StaticTokenProvider)(nil)
	_ driven.TokenProvider = (*EnvTokenProvider)(nil)
	_ driven.TokenProvider = (*FileTokenProvider)(nil)
)

// StaticTokenProvider returns a fixed token, such as a personal access token.
type StaticTokenProvider struct {
	name  string
	token string
}

// NewStaticTokenProvider creates a provider for an inline token.
func NewStaticTokenProvider(name, token string) *StaticTokenProvider {
	return &StaticTokenProvider{name: name, token: token}
}

// GetToken returns the token.
func (p *StaticTokenProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("%w: credential %q has an empty token", domain.ErrAuthentication, p.name)
	}
	return p.token, nil
}

// Name returns the credential name.
func (p *StaticTokenProvider) Name() string {
	return p.name
}

// EnvTokenProvider reads the token from an environment variable on every call,
// so a token rotated by an external process is picked up.
type EnvTokenProvider struct {
	name   string
	envVar string
	lookup func(string) (string, bool)
}

// NewEnvTokenProvider creates a provider reading envVar.
func NewEnvTokenProvider(name, envVar string) *EnvTokenProvider {
	return &EnvTokenProvider{name: name, envVar: envVar, lookup: os.LookupEnv}
}

// GetToken returns the current value of the environment variable.
func (p *EnvTokenProvider) GetToken(_ context.Context) (string, error) {
	token, ok := p.lookup(p.envVar)
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: credential %q: environment variable %s is not set",
			domain.ErrAuthentication, p.name, p.envVar)
	}
	return strings.TrimSpace(token), nil
}

// Name returns the credential name.
func (p *EnvTokenProvider) Name() string {
	return p.name
}

// FileTokenProvider reads the token from a file on every call.
type FileTokenProvider struct {
	name string
	path string
}

// NewFileTokenProvider creates a provider reading path.
func NewFileTokenProvider(name, path string) *FileTokenProvider {
	return &FileTokenProvider{name: name, path: path}
}

// GetToken returns the trimmed file content.
func (p *FileTokenProvider) GetToken(_ context.Context) (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("%w: credential %q: %w", domain.ErrAuthentication, p.name, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: credential %q: token file %s is empty", domain.ErrAuthentication, p.name, p.path)
	}
	return token, nil
}

// Name returns the credential name.
func (p *FileTokenProvider) Name() string {
	return p.name
}
