package domain

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// SourceType identifies which adapter variant synchronises a source.
type SourceType string

const (
	// SourceTypeDocumentSuite syncs documents from a cloud document suite.
	SourceTypeDocumentSuite SourceType = "document-suite"

	// SourceTypeRepository syncs files from a version-controlled repository.
	SourceTypeRepository SourceType = "repository"

	// SourceTypeWeb syncs arbitrary web pages.
	SourceTypeWeb SourceType = "web"
)

// AllSourceTypes returns every supported source type.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeDocumentSuite, SourceTypeRepository, SourceTypeWeb}
}

// IsValid returns true if the type is one of the supported source types.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeDocumentSuite, SourceTypeRepository, SourceTypeWeb:
		return true
	default:
		return false
	}
}

// Defaults applied to optional SourceConfig fields.
const (
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultBranch      = "main"
)

// Seed is one starting point of a source: a document ID or a URL,
// with optional per-seed overrides.
type Seed struct {
	// ID is the document identifier or URL.
	ID string

	// Depth overrides the source's crawl depth for this seed when non-nil.
	Depth *int

	// Format overrides the source's export format for this seed.
	Format string
}

// SourceConfig is a named, typed description of one synchronisation source.
type SourceConfig struct {
	// Name is the unique identifier of the source. It is the destination
	// subdirectory and the manifest key, so it must stay stable across runs.
	Name string

	// Type selects the adapter.
	Type SourceType

	// Seeds are the starting documents or URLs (document-suite, web).
	Seeds []Seed

	// Depth is the default link-following depth for seeds (document-suite, web).
	Depth int

	// Format is the default export format (document-suite, web).
	Format string

	// URL is the remote repository URL (repository).
	URL string

	// Branch is the repository branch to check out (repository).
	Branch string

	// Include holds glob patterns (repository) or URL regular expressions (web).
	Include []string

	// Exclude holds glob patterns (repository) or URL regular expressions (web).
	Exclude []string

	// Credentials names the credential provider used by this source.
	// Empty for sources that need no authentication.
	Credentials string

	// Concurrency bounds parallel fetches within the source.
	Concurrency int

	// Timeout bounds each network request.
	Timeout time.Duration

	// MaxRetries bounds retries of transient network failures.
	MaxRetries int

	// MaxItems caps the number of crawled items. Zero means unlimited.
	MaxItems int
}

// SeedDepth returns the effective depth budget for a seed.
func (c *SourceConfig) SeedDepth(s Seed) int {
	if s.Depth != nil {
		return *s.Depth
	}
	return c.Depth
}

// SeedFormat returns the effective export format for a seed.
func (c *SourceConfig) SeedFormat(s Seed) string {
	if s.Format != "" {
		return s.Format
	}
	return c.Format
}

// ApplyDefaults fills zero-value optional fields.
func (c *SourceConfig) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Type == SourceTypeRepository && c.Branch == "" {
		c.Branch = DefaultBranch
	}
}

// Validate checks the source schema. All returned errors wrap ErrConfiguration.
func (c *SourceConfig) Validate() error {
	if err := ValidateSourceName(c.Name); err != nil {
		return err
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: source %q: %w %q", ErrConfiguration, c.Name, ErrUnsupportedType, c.Type)
	}
	if c.Depth < 0 {
		return configErrorf(c.Name, "depth must be >= 0, got %d", c.Depth)
	}
	if c.MaxItems < 0 {
		return configErrorf(c.Name, "max_items must be >= 0, got %d", c.MaxItems)
	}

	switch c.Type {
	case SourceTypeDocumentSuite:
		return c.validateSeeds(false)
	case SourceTypeWeb:
		if err := c.validateSeeds(true); err != nil {
			return err
		}
		return c.validateURLPatterns()
	case SourceTypeRepository:
		if c.URL == "" {
			return configErrorf(c.Name, "url is required")
		}
		return c.validateGlobs()
	}
	return nil
}

func (c *SourceConfig) validateSeeds(requireURL bool) error {
	if len(c.Seeds) == 0 {
		return configErrorf(c.Name, "at least one seed is required")
	}
	for i, s := range c.Seeds {
		if strings.TrimSpace(s.ID) == "" {
			return configErrorf(c.Name, "seed %d: id is required", i)
		}
		if s.Depth != nil && *s.Depth < 0 {
			return configErrorf(c.Name, "seed %d: depth must be >= 0", i)
		}
		if requireURL {
			u, err := url.Parse(s.ID)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return configErrorf(c.Name, "seed %d: %q is not an http(s) URL", i, s.ID)
			}
		}
	}
	return nil
}

func (c *SourceConfig) validateURLPatterns() error {
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := regexp.Compile(p); err != nil {
			return configErrorf(c.Name, "invalid URL pattern %q: %v", p, err)
		}
	}
	return nil
}

func (c *SourceConfig) validateGlobs() error {
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		for _, seg := range strings.Split(p, "/") {
			if seg == "**" {
				continue
			}
			if _, err := path.Match(seg, ""); err != nil {
				return configErrorf(c.Name, "invalid glob %q: %v", p, err)
			}
		}
	}
	return nil
}

// ValidateSourceName checks that name is usable as a manifest key and a
// single directory name.
func ValidateSourceName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: source name is required", ErrConfiguration)
	case name == "." || name == "..":
		return fmt.Errorf("%w: source name %q is reserved", ErrConfiguration, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: source name %q must not contain path separators", ErrConfiguration, name)
	}
	return nil
}

func configErrorf(source, format string, args ...any) error {
	return fmt.Errorf("%w: source %q: %s", ErrConfiguration, source, fmt.Sprintf(format, args...))
}
