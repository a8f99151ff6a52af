package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"goalplanner/internal/llm"
	"goalplanner/internal/logging"
)

// FileName is the workspace config file.
const FileName = "goalplanner.yml"

// Config models goalplanner.yml. Secrets never live here; they come from the
// environment.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		TokenTTLHours int `yaml:"token_ttl_hours"`
	} `yaml:"auth"`
	LLM struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("config.auth.token_ttl_hours must be positive")
	}
	if _, err := llm.ValidateProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config.llm.provider: %w", err)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("config.llm.timeout_seconds must not be negative")
	}
	if c.Log.Level != "" && !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("config.log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatJSON, logging.FormatText:
	default:
		return fmt.Errorf("config.log.format must be json or text")
	}
	return nil
}

// TokenTTL is how long issued access tokens stay valid.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// Model builds the model client settings; apiKey comes from the environment.
func (c *Config) Model(apiKey string) llm.Config {
	provider, err := llm.ValidateProvider(c.LLM.Provider)
	if err != nil {
		provider = llm.DefaultProvider
	}
	return llm.Config{
		Provider: provider,
		Model:    c.LLM.Model,
		APIKey:   apiKey,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  time.Duration(c.LLM.TimeoutSeconds) * time.Second,
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// Load reads the workspace config, falling back to Default when the file
// does not exist. Keys missing from the file keep their default values.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses raw YAML over the defaults and validates the result.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		return nil, fmt.Errorf("default config yaml: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /api

auth:
  # access tokens issued by /auth/login
  token_ttl_hours: 168

llm:
  # gemini, openai, ollama or anthropic; the API key is read from
  # GOALPLANNER_LLM_API_KEY (or GEMINI_API_KEY for gemini)
  provider: gemini
  model: gemini-2.5-flash
  base_url: ""
  timeout_seconds: 60

log:
  level: info
  format: json
`
