// Package config loads graft configuration from <root>/.graft/config.yaml.
// Every field has a working default so a project with no config file at all
// gets a full pipeline run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all graft configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Analyze  AnalyzeConfig  `yaml:"analyze"`
	Scaffold ScaffoldConfig `yaml:"scaffold"`
	Phases   PhasesConfig   `yaml:"phases"`
	Artifact ArtifactConfig `yaml:"artifacts"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ScanConfig configures the filesystem scanner.
type ScanConfig struct {
	// Extensions lists source-file extensions handed to the front-end.
	Extensions []string `yaml:"extensions"`
	// SkipDirs are directory names excluded from the walk.
	SkipDirs []string `yaml:"skip_dirs"`
	// Workers bounds the parse worker pool.
	Workers int `yaml:"workers"`
}

// AnalyzeConfig configures the feature extractors.
type AnalyzeConfig struct {
	// EndpointDecorators is the HTTP-verb decorator vocabulary.
	EndpointDecorators []string `yaml:"endpoint_decorators"`
	// ModelBases flags persisted-entity classes: an exact "Base" token or
	// any base whose name contains "Model".
	ModelBaseToken    string `yaml:"model_base_token"`
	ModelBaseContains string `yaml:"model_base_contains"`
	// ColumnConstructor is the field-constructor call name.
	ColumnConstructor string `yaml:"column_constructor"`
	// MarkerTokens are the raw substrings flagged as debt markers.
	MarkerTokens []string `yaml:"marker_tokens"`
	// ComplexityThreshold is the score above which a function is flagged.
	ComplexityThreshold int `yaml:"complexity_threshold"`
	// IntegrationClassHints and HookFunctionHints drive the integration
	// point identifier (matched case-insensitively).
	IntegrationClassHints []string `yaml:"integration_class_hints"`
	HookFunctionHints     []string `yaml:"hook_function_hints"`
	// TestFilePrefix / TestFunctionPrefix drive the coverage analyzer.
	TestFilePrefix     string `yaml:"test_file_prefix"`
	TestFunctionPrefix string `yaml:"test_function_prefix"`
}

// ScaffoldConfig configures the scaffolder.
type ScaffoldConfig struct {
	// Directories created (idempotently) under the project root.
	Directories []string `yaml:"directories"`
	// TemplateDir holds optional *.tmpl overrides for built-in templates.
	TemplateDir string `yaml:"template_dir"`
	// StubDir is where rendered interface stubs land.
	StubDir string `yaml:"stub_dir"`
}

// PhaseCommand is one executable phase command line.
type PhaseCommand struct {
	Command []string `yaml:"command"`
	// Prerequisite is a file that must exist at the project root for the
	// phase to be attempted. Empty means always attempted.
	Prerequisite string `yaml:"prerequisite"`
}

// PhasesConfig configures the three-phase executor.
type PhasesConfig struct {
	Install PhaseCommand `yaml:"install"`
	Tests   PhaseCommand `yaml:"tests"`
	Build   PhaseCommand `yaml:"build"`
	// Timeout applies per phase.
	Timeout time.Duration `yaml:"timeout"`
	// MaxOutputBytes caps captured stdout/stderr per command.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// ArtifactConfig configures analysis/plan/report persistence.
type ArtifactConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// StoreConfig configures the SQLite run-history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig mirrors logging.Options.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions: []string{".py"},
			SkipDirs:   []string{".git", ".graft", "__pycache__", "venv", ".venv", "node_modules"},
			Workers:    8,
		},
		Analyze: AnalyzeConfig{
			EndpointDecorators:    []string{"get", "post", "put", "delete", "patch"},
			ModelBaseToken:        "Base",
			ModelBaseContains:     "Model",
			ColumnConstructor:     "Column",
			MarkerTokens:          []string{"TODO", "FIXME"},
			ComplexityThreshold:   10,
			IntegrationClassHints: []string{"service", "factory", "manager", "provider", "client"},
			HookFunctionHints:     []string{"callback", "hook"},
			TestFilePrefix:        "test_",
			TestFunctionPrefix:    "test_",
		},
		Scaffold: ScaffoldConfig{
			Directories: []string{
				"api",
				"core",
				"persistence",
				"models",
				"integration",
				"integration/adapters",
				"tests/unit",
				"tests/integration",
				"deploy",
			},
			TemplateDir: filepath.Join(".graft", "templates"),
			StubDir:     filepath.Join("integration", "adapters"),
		},
		Phases: PhasesConfig{
			Install: PhaseCommand{
				Command:      []string{"pip", "install", "-r", "requirements.txt"},
				Prerequisite: "requirements.txt",
			},
			Tests: PhaseCommand{
				Command: []string{"pytest", "tests"},
			},
			Build: PhaseCommand{
				Command:      []string{"docker", "build", "-t", "integration:latest", "."},
				Prerequisite: "Dockerfile",
			},
			Timeout:        10 * time.Minute,
			MaxOutputBytes: 1 << 20,
		},
		Artifact: ArtifactConfig{
			Enabled: true,
			Dir:     filepath.Join(".graft", "artifacts"),
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(".graft", "graft.db"),
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads <root>/.graft/config.yaml over the defaults.
// A missing file is not an error.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(root, ".graft", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Analyze.ComplexityThreshold <= 0 {
		return fmt.Errorf("analyze.complexity_threshold must be positive, got %d", c.Analyze.ComplexityThreshold)
	}
	if c.Analyze.ColumnConstructor == "" {
		return fmt.Errorf("analyze.column_constructor must not be empty")
	}
	for name, pc := range map[string]PhaseCommand{
		"install": c.Phases.Install,
		"tests":   c.Phases.Tests,
		"build":   c.Phases.Build,
	} {
		if len(pc.Command) == 0 {
			return fmt.Errorf("phases.%s.command must not be empty", name)
		}
	}
	if c.Phases.Timeout <= 0 {
		return fmt.Errorf("phases.timeout must be positive")
	}
	return nil
}
