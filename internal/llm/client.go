// Package llm builds the chat model used for goal analysis on top of
// CloudWeGo Eino.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultProvider  = ProviderGemini
	DefaultOllamaURL = "http://localhost:11434"
	DefaultTimeout   = 60 * time.Second

	defaultClaudeMaxTokens = 4096
)

var defaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.1",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// ErrNotConfigured is returned when no credentials are available for the provider.
var ErrNotConfigured = errors.New("llm not configured")

// Config holds configuration for creating a chat model.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	// BaseURL is only used by Ollama.
	BaseURL string
	Timeout time.Duration
}

// Enabled reports whether the config carries enough to reach a model.
// Ollama runs locally and needs no key.
func (c Config) Enabled() bool {
	if c.Provider == ProviderOllama {
		return true
	}
	return strings.TrimSpace(c.APIKey) != ""
}

// ModelName returns the configured model or the provider default.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.provider()]
}

func (c Config) provider() Provider {
	if c.Provider == "" {
		return DefaultProvider
	}
	return c.Provider
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(p))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderAnthropic, "claude":
		return ProviderAnthropic, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s (supported: gemini, openai, ollama, anthropic)", p)
	}
}

// NewChatModel creates a ChatModel for the configured provider.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	name := cfg.ModelName()
	switch cfg.provider() {
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  name,
		})

	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   name,
			APIKey:  cfg.APIKey,
			Timeout: cfg.timeout(),
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   name,
			Timeout: cfg.timeout(),
		})

	case ProviderAnthropic:
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     name,
			MaxTokens: defaultClaudeMaxTokens,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Generator is the single call the analyzer needs from a chat model.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Completion is the text and token usage of one model call.
type Completion struct {
	Text   string
	Tokens int
}

// Complete sends prompt as a single user message, bounded by timeout.
func Complete(ctx context.Context, g Generator, prompt string, timeout time.Duration) (Completion, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := g.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return Completion{}, err
	}
	if resp == nil {
		return Completion{}, errors.New("model returned no message")
	}
	out := Completion{Text: resp.Content}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		out.Tokens = resp.ResponseMeta.Usage.TotalTokens
	}
	return out, nil
}
