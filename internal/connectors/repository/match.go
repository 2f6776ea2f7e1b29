package repository

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Matcher selects repository paths by include and exclude glob patterns.
//
// Patterns match slash-separated paths relative to the repository root.
// "*" and "?" stay within one path segment, "**" crosses segments, and "**/"
// also matches zero directories, so "docs/**/*.md" selects "docs/a.md".
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles the patterns. An empty include list selects everything.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compileAll(include); err != nil {
		return nil, err
	}
	if m.exclude, err = compileAll(exclude); err != nil {
		return nil, err
	}
	return m, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		for _, v := range expandDoubleStar(strings.TrimPrefix(p, "/")) {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return nil, fmt.Errorf("%w: invalid glob %q: %w", domain.ErrConfiguration, p, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// expandDoubleStar returns p plus every variant with some "**/" removed.
func expandDoubleStar(p string) []string {
	idx := strings.Index(p, "**/")
	if idx < 0 {
		return []string{p}
	}
	var out []string
	for _, rest := range expandDoubleStar(p[idx+3:]) {
		out = append(out, p[:idx+3]+rest, p[:idx]+rest)
	}
	return out
}

// Match reports whether path is included and not excluded.
func (m *Matcher) Match(path string) bool {
	if !anyMatch(m.exclude, path) {
		return len(m.include) == 0 || anyMatch(m.include, path)
	}
	return false
}

func anyMatch(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}
