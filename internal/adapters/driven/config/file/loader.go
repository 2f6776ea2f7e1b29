package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported config extension %q (want .toml, .yaml or .yml)",
			domain.ErrConfiguration, filepath.Ext(path))
	}
}

type rawConfig struct {
	OutputDir   string                   `toml:"output_dir" yaml:"output_dir"`
	ManifestDir string                   `toml:"manifest_dir" yaml:"manifest_dir"`
	StateDir    string                   `toml:"state_dir" yaml:"state_dir"`
	Concurrency int                      `toml:"concurrency" yaml:"concurrency"`
	LogFile     string                   `toml:"log_file" yaml:"log_file"`
	Credentials map[string]rawCredential `toml:"credentials" yaml:"credentials"`
	Sources     []rawSource              `toml:"sources" yaml:"sources"`
}

type rawCredential struct {
	Token     string `toml:"token" yaml:"token"`
	TokenEnv  string `toml:"token_env" yaml:"token_env"`
	TokenFile string `toml:"token_file" yaml:"token_file"`
}

type rawSource struct {
	Name        string    `toml:"name" yaml:"name"`
	Type        string    `toml:"type" yaml:"type"`
	Credentials string    `toml:"credentials" yaml:"credentials"`
	Depth       int       `toml:"depth" yaml:"depth"`
	Format      string    `toml:"format" yaml:"format"`
	Seeds       []rawSeed `toml:"seeds" yaml:"seeds"`
	URL         string    `toml:"url" yaml:"url"`
	Branch      string    `toml:"branch" yaml:"branch"`
	Include     []string  `toml:"include" yaml:"include"`
	Exclude     []string  `toml:"exclude" yaml:"exclude"`
	Concurrency int       `toml:"concurrency" yaml:"concurrency"`
	Timeout     string    `toml:"timeout" yaml:"timeout"`
	MaxRetries  int       `toml:"max_retries" yaml:"max_retries"`
	MaxItems    int       `toml:"max_items" yaml:"max_items"`
}

type rawSeed struct {
	ID     string `toml:"id" yaml:"id"`
	Depth  *int   `toml:"depth" yaml:"depth"`
	Format string `toml:"format" yaml:"format"`
}

// Load reads, expands and normalises the configuration at path.
// A .env file in the same directory is loaded first; variables already set
// in the environment take precedence.
func Load(path string) (*Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	cfg, err := Parse(data, format, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: load %s: %w", domain.ErrConfiguration, path, err)
	}
	return nil
}

// Parse decodes configuration data. Relative directories are resolved
// against baseDir. Unknown keys are rejected.
func Parse(data []byte, format Format, baseDir string) (*Config, error) {
	var raw rawConfig
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrConfiguration, format)
	}

	return raw.build(baseDir)
}

func (r *rawConfig) build(baseDir string) (*Config, error) {
	cfg := &Config{
		OutputDir:   resolveDir(baseDir, expand(r.OutputDir), DefaultOutputDir),
		StateDir:    resolveDir(baseDir, expand(r.StateDir), DefaultStateDir),
		Concurrency: r.Concurrency,
		LogFile:     expand(r.LogFile),
	}
	if r.ManifestDir == "" {
		cfg.ManifestDir = filepath.Join(cfg.StateDir, DefaultManifestDir)
	} else {
		cfg.ManifestDir = resolveDir(baseDir, expand(r.ManifestDir), "")
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(baseDir, cfg.LogFile)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = domain.DefaultConcurrency
	}

	for name, c := range r.Credentials {
		cfg.Credentials = append(cfg.Credentials, domain.Credential{
			Name:      name,
			Token:     expand(c.Token),
			TokenEnv:  expand(c.TokenEnv),
			TokenFile: resolveFile(baseDir, expand(c.TokenFile)),
		})
	}
	sort.Slice(cfg.Credentials, func(i, j int) bool {
		return cfg.Credentials[i].Name < cfg.Credentials[j].Name
	})

	for i, s := range r.Sources {
		src, err := s.build()
		if err != nil {
			if cfg.invalid == nil {
				cfg.invalid = make(map[int]error)
			}
			cfg.invalid[i] = err
		}
		cfg.Sources = append(cfg.Sources, src)
	}
	return cfg, nil
}

// build converts one source. A field that cannot be decoded is returned as
// an error alongside the partially built source, so only that source is
// rejected later.
func (s *rawSource) build() (domain.SourceConfig, error) {
	src := domain.SourceConfig{
		Name:        expand(s.Name),
		Type:        domain.SourceType(s.Type),
		Credentials: s.Credentials,
		Depth:       s.Depth,
		Format:      expand(s.Format),
		URL:         expand(s.URL),
		Branch:      expand(s.Branch),
		Include:     s.Include,
		Exclude:     s.Exclude,
		Concurrency: s.Concurrency,
		MaxRetries:  s.MaxRetries,
		MaxItems:    s.MaxItems,
	}
	var err error
	if s.Timeout != "" {
		d, perr := time.ParseDuration(s.Timeout)
		if perr != nil {
			err = fmt.Errorf("%w: invalid timeout %q: %w", domain.ErrConfiguration, s.Timeout, perr)
		} else {
			src.Timeout = d
		}
	}
	for _, seed := range s.Seeds {
		src.Seeds = append(src.Seeds, domain.Seed{
			ID:     expand(seed.ID),
			Depth:  seed.Depth,
			Format: expand(seed.Format),
		})
	}
	src.ApplyDefaults()
	return src, err
}

func expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}

func resolveDir(baseDir, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(baseDir, dir)
}

func resolveFile(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
