package llmclient

import (
	"strings"
	"time"
)

const (
	ProviderGitHub = "github"
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderFake   = "fake"
)

// ProviderConfig describes one completion provider. It is immutable once
// loaded.
type ProviderConfig struct {
	Name     string
	Endpoint string
	APIKey   string
	// Model is the default, higher-quality model id.
	Model string
	// FastModel is selected by the "flash" hint; falls back to Model.
	FastModel string

	MinInterval      time.Duration
	MaxRetryAttempts int
	BaseBackoff      time.Duration
	Timeout          time.Duration
}

// ModelFor resolves the model id for a request hint.
func (c ProviderConfig) ModelFor(hint string) string {
	if strings.EqualFold(strings.TrimSpace(hint), "flash") && c.FastModel != "" {
		return c.FastModel
	}
	return c.Model
}

// DefaultGitHubConfig targets the GitHub Models inference endpoint.
func DefaultGitHubConfig(token string) ProviderConfig {
	return ProviderConfig{
		Name:             ProviderGitHub,
		Endpoint:         "https://models.github.ai/inference",
		APIKey:           token,
		Model:            "openai/gpt-4o",
		FastModel:        "openai/gpt-4o-mini",
		MinInterval:      time.Second,
		MaxRetryAttempts: 3,
		BaseBackoff:      time.Second,
		Timeout:          60 * time.Second,
	}
}

// DefaultGeminiConfig mirrors the free-tier pacing: one call every two seconds.
func DefaultGeminiConfig(apiKey string) ProviderConfig {
	return ProviderConfig{
		Name:             ProviderGemini,
		Endpoint:         "https://generativelanguage.googleapis.com/",
		APIKey:           apiKey,
		Model:            "gemini-1.5-pro-latest",
		FastModel:        "gemini-1.5-flash",
		MinInterval:      2 * time.Second,
		MaxRetryAttempts: 3,
		BaseBackoff:      time.Second,
		Timeout:          30 * time.Second,
	}
}

// DefaultGroqConfig targets the Groq OpenAI-compatible endpoint.
// See: https://console.groq.com/docs/rate-limits
func DefaultGroqConfig(apiKey string) ProviderConfig {
	return ProviderConfig{
		Name:             ProviderGroq,
		Endpoint:         "https://api.groq.com/openai/v1",
		APIKey:           apiKey,
		Model:            "llama-3.3-70b-versatile",
		FastModel:        "llama-3.1-8b-instant",
		MinInterval:      2 * time.Second,
		MaxRetryAttempts: 3,
		BaseBackoff:      time.Second,
		Timeout:          60 * time.Second,
	}
}
