package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestMatcher(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no patterns selects all", nil, nil, "src/main.go", true},
		{"star stays in segment", []string{"*.md"}, nil, "docs/guide.md", false},
		{"star at root", []string{"*.md"}, nil, "README.md", true},
		{"double star any depth", []string{"**/*.md"}, nil, "docs/a/b/guide.md", true},
		{"double star zero dirs", []string{"**/*.md"}, nil, "README.md", true},
		{"middle double star zero dirs", []string{"docs/**/*.md"}, nil, "docs/guide.md", true},
		{"middle double star nested", []string{"docs/**/*.md"}, nil, "docs/x/y/guide.md", true},
		{"other dir", []string{"docs/**/*.md"}, nil, "src/guide.md", false},
		{"exclude wins", []string{"**/*.md"}, []string{"docs/drafts/**"}, "docs/drafts/wip.md", false},
		{"exclude only", nil, []string{"vendor/**"}, "vendor/lib/a.go", false},
		{"exclude only keeps others", nil, []string{"vendor/**"}, "main.go", true},
		{"alternatives", []string{"**/*.{md,txt}"}, nil, "notes/todo.txt", true},
		{"question mark", []string{"v?.md"}, nil, "v1.md", true},
		{"leading slash ignored", []string{"/docs/*.md"}, nil, "docs/a.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestNewMatcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"docs/[a-"}, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestExpandDoubleStar(t *testing.T) {
	assert.Equal(t, []string{"a/b"}, expandDoubleStar("a/b"))
	assert.ElementsMatch(t, []string{"**/x", "x"}, expandDoubleStar("**/x"))
	assert.ElementsMatch(t,
		[]string{"a/**/b/**/c", "a/**/b/c", "a/b/**/c", "a/b/c"},
		expandDoubleStar("a/**/b/**/c"))
}
