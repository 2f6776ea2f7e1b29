package file

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Default locations, relative to the configuration file.
const (
	DefaultOutputDir   = "knowledge"
	DefaultStateDir    = ".sercha-sync"
	DefaultManifestDir = "manifests"
)

// Config is the loaded configuration.
type Config struct {
	// Path is the file the configuration was loaded from.
	Path string

	// OutputDir is the root of the synchronised tree.
	OutputDir string

	// ManifestDir holds one manifest per source.
	ManifestDir string

	// StateDir holds the history database and repository checkouts.
	StateDir string

	// Concurrency bounds how many sources sync at once.
	Concurrency int

	// LogFile optionally receives every log line.
	LogFile string

	// Credentials are the named token sources.
	Credentials []domain.Credential

	// Sources are the configured sources, in file order.
	Sources []domain.SourceConfig

	// invalid holds decode errors by source index.
	invalid map[int]error
}

// Problem returns the first validation failure of the named source, or nil.
func (c *Config) Problem(name string) error {
	problems, _ := c.Check()
	for _, p := range problems {
		if p.Source == name {
			return p.Err
		}
	}
	return nil
}

// SourceProblem is a validation failure of one source.
type SourceProblem struct {
	Source string
	Err    error
}

func (p SourceProblem) Error() string {
	return fmt.Sprintf("source %q: %v", p.Source, p.Err)
}

func (p SourceProblem) Unwrap() error {
	return p.Err
}

// Source returns the source with the given name.
func (c *Config) Source(name string) (domain.SourceConfig, error) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, nil
		}
	}
	return domain.SourceConfig{}, fmt.Errorf("%w: source %q", domain.ErrNotFound, name)
}

// Names returns the source names in file order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		names = append(names, s.Name)
	}
	return names
}

// Check validates credentials and every source without any network access.
// Credential problems are returned as the error; source problems are
// reported per source so that valid sources can still run.
func (c *Config) Check() ([]SourceProblem, error) {
	var credErrs []error
	creds := make(map[string]bool, len(c.Credentials))
	for _, cred := range c.Credentials {
		if err := cred.Validate(); err != nil {
			credErrs = append(credErrs, err)
			continue
		}
		if creds[cred.Name] {
			credErrs = append(credErrs, fmt.Errorf("%w: duplicate credential %q", domain.ErrConfiguration, cred.Name))
		}
		creds[cred.Name] = true
	}

	var problems []SourceProblem
	seen := make(map[string]int, len(c.Sources))
	for i := range c.Sources {
		src := c.Sources[i]
		seen[src.Name]++
		switch {
		case c.invalid[i] != nil:
			problems = append(problems, SourceProblem{src.Name, c.invalid[i]})
		case seen[src.Name] > 1:
			problems = append(problems, SourceProblem{src.Name,
				fmt.Errorf("%w: duplicate source name", domain.ErrConfiguration)})
		case src.Credentials != "" && !creds[src.Credentials]:
			problems = append(problems, SourceProblem{src.Name,
				fmt.Errorf("%w: unknown credential %q", domain.ErrConfiguration, src.Credentials)})
		default:
			if err := src.Validate(); err != nil {
				problems = append(problems, SourceProblem{src.Name, err})
			}
		}
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Source < problems[j].Source })
	return problems, errors.Join(credErrs...)
}
