package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrAuthentication", ErrAuthentication},
		{"ErrTransientNetwork", ErrTransientNetwork},
		{"ErrItemFetch", ErrItemFetch},
		{"ErrManifestCorrupt", ErrManifestCorrupt},
		{"ErrPathEscape", ErrPathEscape},
		{"ErrDuplicatePath", ErrDuplicatePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"authentication", fmt.Errorf("drive: %w", ErrAuthentication), ErrorKindAuthentication},
		{"configuration", fmt.Errorf("%w: bad format", ErrConfiguration), ErrorKindConfiguration},
		{"transient", fmt.Errorf("get: %w", ErrTransientNetwork), ErrorKindTransient},
		{"item fetch", fmt.Errorf("%w: 404", ErrItemFetch), ErrorKindFetch},
		{"unknown", errors.New("boom"), ErrorKindFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestIsFatalToSource(t *testing.T) {
	assert.True(t, IsFatalToSource(fmt.Errorf("x: %w", ErrAuthentication)))
	assert.True(t, IsFatalToSource(fmt.Errorf("x: %w", ErrConfiguration)))
	assert.False(t, IsFatalToSource(fmt.Errorf("x: %w", ErrTransientNetwork)))
	assert.False(t, IsFatalToSource(fmt.Errorf("x: %w", ErrItemFetch)))
	assert.False(t, IsFatalToSource(nil))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("x: %w", ErrTransientNetwork)))
	assert.False(t, IsTransient(ErrItemFetch))
}
