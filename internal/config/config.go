// Package config loads the YAML run configuration: which directories to
// index, which keyword files drive the index, and how file types map to
// handlers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/kbindex/internal/handler"
)

// Config is the full run configuration.
type Config struct {
	Directories Directories         `yaml:"directories"`
	Keywords    Keywords            `yaml:"keywords"`
	Output      Output              `yaml:"output"`
	FileTypes   map[string]FileType `yaml:"file_types"`
	Server      Server              `yaml:"server"`

	// Workers bounds per-run parallelism; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// Directories selects the indexed file set.
type Directories struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Keywords lists the keyword files searched during a run.
type Keywords struct {
	Files []string `yaml:"files"`
}

// Output names the generated mind map.
type Output struct {
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// FileType binds a set of extensions to a document handler.
type FileType struct {
	Extensions []string `yaml:"extensions"`
	Handler    string   `yaml:"handler"`
}

// Server configures serve mode.
type Server struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Default returns the built-in configuration used when no file is found.
func Default() *Config {
	return &Config{
		Directories: Directories{
			Include: []string{"."},
			Exclude: []string{"**/node_modules/**", "**/.git/**", "**/build/**", "**/vendor/**"},
		},
		Output: Output{File: "index.mm", Format: "freeplane"},
		FileTypes: map[string]FileType{
			"freeplane": {Extensions: []string{".mm"}, Handler: "freeplane"},
			"markdown":  {Extensions: []string{".md", ".markdown"}, Handler: "markdown"},
		},
		Server: Server{Port: "8090"},
	}
}

// Load reads the configuration at path, or discovers one when path is
// empty. With no file anywhere it returns Default. Environment variables
// PORT and KBINDEX_API_KEY override the server section.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, err := discover(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", resolved, err)
		}
		// Unmarshal into the prefilled defaults so absent sections keep
		// their default values.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("KBINDEX_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("KBINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// discover finds a config file in priority order. An explicit path that
// does not exist is an error; no file at all is not.
func discover(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file not found: %s", path)
		}
		return path, nil
	}

	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join("config", "kbindex.yml"),
		filepath.Join("config", "kbindex.yaml"),
		"kbindex.yml",
		"kbindex.yaml",
	}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "kbindex", "config.yml"),
			filepath.Join(home, ".config", "kbindex", "config.yaml"),
		)
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && fi.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", nil
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Directories),
		validation.Field(&c.Output),
		validation.Field(&c.Workers, validation.Min(0)),
	)
	if err != nil {
		return err
	}
	for name, ft := range c.FileTypes {
		if err := ft.validate(); err != nil {
			return fmt.Errorf("file_types.%s: %w", name, err)
		}
	}
	return nil
}

func (d Directories) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Include, validation.Required),
	)
}

func (o Output) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.File, validation.Required),
		validation.Field(&o.Format, validation.Required, validation.In("freeplane")),
	)
}

func (ft FileType) validate() error {
	known := make([]interface{}, 0, len(handler.Names()))
	for _, n := range handler.Names() {
		known = append(known, n)
	}
	return validation.ValidateStruct(&ft,
		validation.Field(&ft.Extensions, validation.Required),
		validation.Field(&ft.Handler, validation.Required, validation.In(known...)),
	)
}

// Extensions returns every configured extension across file types.
func (c *Config) Extensions() []string {
	var out []string
	for _, ft := range c.FileTypes {
		out = append(out, ft.Extensions...)
	}
	return out
}

const sampleConfig = `# kbindex configuration
directories:
  include:
    - docs/
    - notes/
  exclude:
    - "**/node_modules/**"
    - "**/.git/**"

keywords:
  files:
    - keywords.txt

output:
  file: index.mm
  format: freeplane

file_types:
  freeplane:
    extensions: [".mm"]
    handler: freeplane
  markdown:
    extensions: [".md", ".markdown"]
    handler: markdown

server:
  port: "8090"
  # api_key: set KBINDEX_API_KEY or uncomment to require bearer auth
`

// WriteSample writes a commented reference configuration.
func WriteSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
