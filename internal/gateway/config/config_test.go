package config

import (
	"testing"
	"time"

	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/tester"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func names(ps []llmclient.ProviderConfig) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(envOf(nil), ":5000")
	tester.Eq(t, cfg.Port, ":5000")
	tester.Eq(t, cfg.Env, "local")
	tester.Eq(t, cfg.CORSOrigins, []string{"http://localhost:3000"})
	tester.Eq(t, cfg.DownloadsDir, "downloads")
	tester.Eq(t, cfg.UploadDir, "uploads")
	tester.False(t, cfg.FakeLLM)
	tester.False(t, cfg.DocumentS3.Enabled)
	tester.Eq(t, cfg.InteractionDSN, "")
	tester.Eq(t, names(cfg.Providers), []string{"gemini"}, "gemini is always registered")
	tester.Eq(t, cfg.Providers[0].APIKey, "")
}

func TestFromEnv_ProviderOrder(t *testing.T) {
	cfg := FromEnv(envOf(map[string]string{
		"GITHUB_TOKEN":   "ghp_x",
		"GEMINI_API_KEY": "AIzaSyTest",
		"GROQ_API_KEY":   "gsk_x",
	}), ":5000")
	tester.Eq(t, names(cfg.Providers), []string{"github", "gemini", "groq"})
	tester.Eq(t, cfg.Providers[0].Model, "openai/gpt-4o")
	tester.Eq(t, cfg.Providers[1].MinInterval, 2*time.Second)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg := FromEnv(envOf(map[string]string{
		"PORT":                 "8080",
		"CORS_ORIGINS":         "http://a.test, http://b.test",
		"LLM_FAKE":             "1",
		"GEMINI_MODEL":         "gemini-2.0-pro",
		"GEMINI_FAST_MODEL":    "gemini-2.0-flash",
		"GEMINI_MIN_INTERVAL":  "500ms",
		"GEMINI_BASE_BACKOFF":  "2",
		"GEMINI_MAX_RETRIES":   "5",
		"GEMINI_TIMEOUT":       "nonsense",
		"DOCUMENT_S3_ENDPOINT": "minio:9000",
		"DOCUMENT_S3_USE_SSL":  "false",
		"INTERACTION_PG_DSN":   " postgres://mindflow@db/mindflow ",
	}), ":5000")

	tester.Eq(t, cfg.Port, ":8080")
	tester.Eq(t, cfg.CORSOrigins, []string{"http://a.test", "http://b.test"})
	tester.True(t, cfg.FakeLLM)
	g := cfg.Providers[0]
	tester.Eq(t, g.Model, "gemini-2.0-pro")
	tester.Eq(t, g.FastModel, "gemini-2.0-flash")
	tester.Eq(t, g.MinInterval, 500*time.Millisecond)
	tester.Eq(t, g.BaseBackoff, 2*time.Second)
	tester.Eq(t, g.MaxRetryAttempts, 5)
	tester.Eq(t, g.Timeout, 30*time.Second, "unparseable value keeps the default")
	tester.True(t, cfg.DocumentS3.Enabled)
	tester.False(t, cfg.DocumentS3.UseSSL)
	tester.Eq(t, cfg.InteractionDSN, "postgres://mindflow@db/mindflow")
}
