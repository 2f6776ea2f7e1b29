package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestCloneArgs(t *testing.T) {
	args := cloneArgs("https://github.com/acme/handbook.git", "main", "/tmp/x/repo", false)
	assert.Equal(t, []string{
		"clone", "--depth", "1", "--single-branch", "--no-tags",
		"--branch", "main", "--", "https://github.com/acme/handbook.git", "/tmp/x/repo",
	}, args)

	args = cloneArgs("https://github.com/acme/handbook.git", "main", "/tmp/x/repo", true)
	assert.Equal(t, "-c", args[0])
	assert.Equal(t, credentialHelper, args[1])
	assert.Equal(t, "clone", args[2])
}

func TestRedactArgs(t *testing.T) {
	got := redactArgs([]string{"-c", credentialHelper, "clone"})
	assert.Equal(t, []string{"-c", "credential.helper=<redacted>", "clone"}, got)
}

func TestClassifyGitError(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   error
	}{
		{"auth failed", "fatal: Authentication failed for 'https://github.com/acme/x.git/'", domain.ErrAuthentication},
		{"no username", "fatal: could not read Username for 'https://github.com': terminal prompts disabled", domain.ErrAuthentication},
		{"dns", "fatal: unable to access 'https://github.com/': Could not resolve host: github.com", domain.ErrTransientNetwork},
		{"server error", "error: The requested URL returned error: 502", domain.ErrTransientNetwork},
		{"missing branch", "warning: Could not find remote branch nope to clone.\nfatal: Remote branch nope not found in upstream origin", domain.ErrConfiguration},
		{"missing repo", "fatal: repository '/nope' does not exist", domain.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyGitError(&GitError{Args: []string{"clone"}, Output: tt.output, Err: errors.New("exit status 128")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassifyGitError_Passthrough(t *testing.T) {
	assert.NoError(t, classifyGitError(nil))
	plain := errors.New("boom")
	assert.Equal(t, plain, classifyGitError(plain))
}
