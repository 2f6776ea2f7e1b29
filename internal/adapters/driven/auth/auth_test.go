package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestNullTokenProvider(t *testing.T) {
	p := NewNullTokenProvider()

	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, p.Name())
}

func TestStaticTokenProvider(t *testing.T) {
	token, err := NewStaticTokenProvider("gh", "ghp_abc").GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", token)

	_, err = NewStaticTokenProvider("gh", "").GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestEnvTokenProvider(t *testing.T) {
	t.Setenv("SERCHA_SYNC_TEST_TOKEN", "  ya29.token\n")
	p := NewEnvTokenProvider("google", "SERCHA_SYNC_TEST_TOKEN")

	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token)
	assert.Equal(t, "google", p.Name())

	missing := NewEnvTokenProvider("google", "SERCHA_SYNC_TEST_UNSET_VAR")
	_, err = missing.GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestFileTokenProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("secret\n"), 0o600))

	token, err := NewFileTokenProvider("gh", path).GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	_, err = NewFileTokenProvider("gh", filepath.Join(dir, "missing")).GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthentication)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = NewFileTokenProvider("gh", empty).GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestResolver(t *testing.T) {
	r := NewResolver([]domain.Credential{
		{Name: "gh", Token: "ghp_abc"},
		{Name: "google", TokenEnv: "GOOGLE_ACCESS_TOKEN"},
		{Name: "file", TokenFile: "/run/secrets/token"},
	})

	tests := []struct {
		name     string
		credName string
		wantType any
		wantErr  bool
	}{
		{"no credentials", "", &NullTokenProvider{}, false},
		{"static", "gh", &StaticTokenProvider{}, false},
		{"env", "google", &EnvTokenProvider{}, false},
		{"file", "file", &FileTokenProvider{}, false},
		{"unknown", "nope", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Resolve(tt.credName)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
		})
	}

	assert.True(t, r.Has("gh"))
	assert.False(t, r.Has("nope"))
}

func TestNewResolver_SkipsInvalidCredentials(t *testing.T) {
	r := NewResolver([]domain.Credential{
		{Name: "drive"},
		{Name: "gh", Token: "a"},
		{Name: "gh", Token: "b"},
	})

	_, err := r.Resolve("drive")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.False(t, r.Has("drive"))

	p, err := r.Resolve("gh")
	require.NoError(t, err)
	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", token)
}
