package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"mindflow/internal/collab"
	"mindflow/internal/content"
	"mindflow/internal/document"
	"mindflow/internal/extract"
	"mindflow/internal/gateway/config"
	"mindflow/internal/gateway/handler"
	"mindflow/internal/gateway/server"
	"mindflow/internal/interaction"
	"mindflow/internal/llm"
	llmclient "mindflow/internal/llm/client"
	"mindflow/internal/safeio"
)

type App struct {
	server *server.Server
	stack  *Stack
	cfg    *config.Config
}

// Stack is the wired request-serving graph plus what it must release on
// shutdown.
type Stack struct {
	Handler http.Handler
	Router  *llm.Router
	History interaction.History
}

func (s *Stack) Close() error {
	errs := []error{s.Router.Close()}
	if c, ok := s.History.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := log.Default()

	stack, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{server: server.New(cfg.Port, stack.Handler), stack: stack, cfg: cfg}, nil
}

// Build wires every component for cfg.
func Build(cfg *config.Config, logger *log.Logger) (*Stack, error) {
	downloads, err := safeio.NewSafeFS(cfg.DownloadsDir)
	if err != nil {
		return nil, fmt.Errorf("downloads dir: %w", err)
	}
	uploads, err := safeio.NewSafeFS(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("uploads dir: %w", err)
	}

	opts := []document.Option{document.WithLogger(logger)}
	if cfg.DocumentS3.Enabled {
		store, err := document.NewS3Store(document.S3Config{
			Endpoint:  cfg.DocumentS3.Endpoint,
			Region:    cfg.DocumentS3.Region,
			AccessKey: cfg.DocumentS3.AccessKey,
			SecretKey: cfg.DocumentS3.SecretKey,
			UseSSL:    cfg.DocumentS3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("document s3: %w", err)
		}
		opts = append(opts, document.WithObjectStore(store))
	}
	fetcher, err := document.NewFetcher(downloads, opts...)
	if err != nil {
		return nil, err
	}

	router := NewRouter(cfg, logger)
	history := interaction.NewFromDSN(cfg.InteractionDSN, logger)
	extractor := extract.New(logger)
	pipeline := content.NewPipeline(fetcher, extractor, router, history, logger)

	h := &handler.Handler{
		Pipeline:  pipeline,
		Uploads:   uploads,
		Extractor: extractor,
		Agent:     collab.NewTutor(router),
		Origins:   cfg.CORSOrigins,
		Log:       logger,
	}
	return &Stack{Handler: server.NewMux(h, cfg.CORSOrigins), Router: router, History: history}, nil
}

// NewRouter builds the provider chain in configured order, each provider
// decorated with logging, retry and rate limiting over one shared limiter.
func NewRouter(cfg *config.Config, logger *log.Logger) *llm.Router {
	limiter := llm.NewIntervalLimiter()
	if cfg.FakeLLM {
		fake := llmclient.ProviderConfig{Name: llmclient.ProviderFake, Model: "fake", MaxRetryAttempts: 1}
		return llm.NewRouter(logger, llm.NewRoute(fake, llmclient.NewFakeClient(), limiter, logger))
	}
	routes := make([]llm.Route, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		var cli llmclient.LLMClient
		switch p.Name {
		case llmclient.ProviderGemini:
			cli = llmclient.NewGeminiClient(p)
		default:
			cli = llmclient.NewOpenAIClient(p)
		}
		routes = append(routes, llm.NewRoute(p, cli, limiter, logger))
	}
	return llm.NewRouter(logger, routes...)
}

// Describe summarises the running configuration for the startup log.
func (a *App) Describe() string {
	history := "memory"
	if _, ok := a.stack.History.(*interaction.PostgresLog); ok {
		history = "postgres"
	}
	s3 := "off"
	if a.cfg.DocumentS3.Enabled {
		s3 = a.cfg.DocumentS3.Endpoint
	}
	return fmt.Sprintf("env=%s addr=%s providers=%v history=%s s3=%s",
		a.cfg.Env, a.server.Addr(), a.stack.Router.Providers(), history, s3)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.stack.Close())
}
