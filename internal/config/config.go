// Package config loads gitscribe configuration from three layers:
// built-in defaults embedded in the binary, the user config under
// os.UserConfigDir()/gitscribe/config.yaml, and a .gitscribe.yaml at
// the repository top level. Later layers override scalar settings;
// prompt templates accumulate across layers so a repo can override a
// single template without restating the rest.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gitscribe/internal/prompt"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all gitscribe configuration.
type Config struct {
	// Prompt template layers, lowest precedence first.
	Prompts []prompt.Layer `yaml:"-"`

	// Commit message generation
	Commit CommitConfig `yaml:"commit"`

	// Terminal rendering
	Terminal TerminalConfig `yaml:"terminal"`

	// LLM provider selection
	LLM LLMConfig `yaml:"llm"`

	// Diff extraction
	Diff DiffConfig `yaml:"diff"`
}

// CommitConfig configures commit message generation.
type CommitConfig struct {
	// Append a Generated-by trailer naming the model.
	AddMetadata bool `yaml:"add_metadata"`
}

// TerminalConfig configures markdown and diff rendering.
type TerminalConfig struct {
	Theme         string `yaml:"theme"`          // chroma style for code and diffs
	MarkdownStyle string `yaml:"markdown_style"` // glamour style: auto, dark, light, notty
	Width         int    `yaml:"width"`          // word wrap width, 0 = terminal width
	Color         string `yaml:"color"`          // auto, always, never
}

// LLMConfig configures model selection and credentials.
type LLMConfig struct {
	// Model used when --model is not given.
	DefaultModel string `yaml:"default_model"`

	// Short names expanded to full model identifiers.
	Aliases map[string]string `yaml:"aliases"`

	// API keys by provider, consulted when the env var is unset.
	Keys map[string]string `yaml:"keys"`

	// Settings for the claude-cli subprocess backend.
	ClaudeCLI ClaudeCLIConfig `yaml:"claude_cli"`
}

// ClaudeCLIConfig configures the claude CLI subprocess backend.
type ClaudeCLIConfig struct {
	Command        string `yaml:"command"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DiffConfig configures how diffs are extracted for prompts.
type DiffConfig struct {
	// Paths excluded from generated diffs. Set to an empty list to
	// include everything.
	Exclude []string `yaml:"exclude"`

	// Context lines per hunk.
	Unified int `yaml:"unified"`
}

// document mirrors the YAML layout of a single config file. Prompts
// are decoded separately from Config so each file contributes its own
// ordered layer.
type document struct {
	Prompts  *prompt.Layer  `yaml:"prompts"`
	Commit   CommitConfig   `yaml:"commit"`
	Terminal TerminalConfig `yaml:"terminal"`
	LLM      LLMConfig      `yaml:"llm"`
	Diff     DiffConfig     `yaml:"diff"`
}

// UserConfigPath returns the per-user config file location.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "gitscribe", "config.yaml"), nil
}

// Load builds the effective configuration. topLevel is the repository
// root for the repo-local layer; pass "" outside a repository. Missing
// files are skipped, malformed files are errors naming the file.
func Load(topLevel string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &Config{}
	if err := cfg.mergeDocument(defaultsYAML); err != nil {
		return nil, fmt.Errorf("failed to parse built-in defaults: %w", err)
	}

	var paths []string
	if userPath, err := UserConfigPath(); err == nil {
		paths = append(paths, userPath)
	} else {
		logger.Debug("user config directory unavailable", zap.Error(err))
	}
	if topLevel != "" {
		paths = append(paths, filepath.Join(topLevel, ".gitscribe.yaml"))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("config layer absent", zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := cfg.mergeDocument(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		logger.Debug("config layer applied", zap.String("path", path))
	}

	return cfg, nil
}

// mergeDocument applies one config file on top of the current state.
// yaml.v3 only touches fields present in the document, so absent keys
// keep their previous values, and entries decoded into the existing
// alias and key maps merge instead of replacing them.
func (c *Config) mergeDocument(data []byte) error {
	doc := document{
		Commit:   c.Commit,
		Terminal: c.Terminal,
		LLM:      c.LLM,
		Diff:     c.Diff,
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.Commit = doc.Commit
	c.Terminal = doc.Terminal
	c.LLM = doc.LLM
	c.Diff = doc.Diff
	if doc.Prompts != nil {
		c.Prompts = append(c.Prompts, *doc.Prompts)
	}
	return nil
}
