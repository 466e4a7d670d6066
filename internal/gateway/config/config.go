package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	llmclient "mindflow/internal/llm/client"
)

type Config struct {
	Port        string
	Env         string
	CORSOrigins []string

	DownloadsDir string
	UploadDir    string

	// FakeLLM replaces every provider with the offline fake.
	FakeLLM bool
	// Providers in fallback order. Gemini is always present; GitHub and Groq
	// only when their credentials are set.
	Providers []llmclient.ProviderConfig

	DocumentS3 DocumentS3Config
	// InteractionDSN selects Postgres for the interaction history; empty
	// keeps it in memory.
	InteractionDSN string
}

type DocumentS3Config struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Load reads .env, the -port flag and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":5000", "server port")
	flag.Parse()

	return FromEnv(os.Getenv, *port), nil
}

// FromEnv builds a Config from getenv; PORT overrides defaultPort.
func FromEnv(getenv func(string) string, defaultPort string) *Config {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	port := defaultPort
	if envPort := get("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	return &Config{
		Port:         port,
		Env:          firstNonEmpty(get("APP_ENV"), "local"),
		CORSOrigins:  splitList(firstNonEmpty(get("CORS_ORIGINS"), "http://localhost:3000")),
		DownloadsDir: firstNonEmpty(get("DOWNLOADS_DIR"), "downloads"),
		UploadDir:    firstNonEmpty(get("UPLOAD_DIR"), "uploads"),
		FakeLLM:      parseBool(get("LLM_FAKE"), false),
		Providers:    loadProviders(get),
		DocumentS3:   loadDocumentS3(get),

		InteractionDSN: get("INTERACTION_PG_DSN"),
	}
}

func loadProviders(get func(string) string) []llmclient.ProviderConfig {
	var out []llmclient.ProviderConfig
	if token := get("GITHUB_TOKEN"); token != "" {
		out = append(out, overlay(llmclient.DefaultGitHubConfig(token), "GITHUB", get))
	}
	// Gemini is registered even without a key; its client then fails fast.
	out = append(out, overlay(llmclient.DefaultGeminiConfig(get("GEMINI_API_KEY")), "GEMINI", get))
	if key := get("GROQ_API_KEY"); key != "" {
		out = append(out, overlay(llmclient.DefaultGroqConfig(key), "GROQ", get))
	}
	return out
}

// overlay applies <PREFIX>_* environment overrides to cfg.
func overlay(cfg llmclient.ProviderConfig, prefix string, get func(string) string) llmclient.ProviderConfig {
	cfg.Endpoint = firstNonEmpty(get(prefix+"_ENDPOINT"), cfg.Endpoint)
	cfg.Model = firstNonEmpty(get(prefix+"_MODEL"), cfg.Model)
	cfg.FastModel = firstNonEmpty(get(prefix+"_FAST_MODEL"), cfg.FastModel)
	cfg.MinInterval = parseDuration(get(prefix+"_MIN_INTERVAL"), cfg.MinInterval)
	cfg.BaseBackoff = parseDuration(get(prefix+"_BASE_BACKOFF"), cfg.BaseBackoff)
	cfg.Timeout = parseDuration(get(prefix+"_TIMEOUT"), cfg.Timeout)
	if n, err := strconv.Atoi(get(prefix + "_MAX_RETRIES")); err == nil && n > 0 {
		cfg.MaxRetryAttempts = n
	}
	return cfg
}

func loadDocumentS3(get func(string) string) DocumentS3Config {
	endpoint := get("DOCUMENT_S3_ENDPOINT")
	return DocumentS3Config{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(get("DOCUMENT_S3_REGION"), "us-east-1"),
		AccessKey: get("DOCUMENT_S3_ACCESS_KEY"),
		SecretKey: get("DOCUMENT_S3_SECRET_KEY"),
		UseSSL:    parseBool(get("DOCUMENT_S3_USE_SSL"), true),
	}
}

// parseDuration accepts Go durations ("1500ms") or bare seconds ("2", "0.5").
func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
