package llm

import (
	"log"

	llmclient "mindflow/internal/llm/client"
)

// NewRoute decorates client with the standard stack for cfg:
// Logging -> Retry -> RateLimit -> client. Retry sits outside the limiter
// so every retry attempt is spaced too.
func NewRoute(cfg llmclient.ProviderConfig, client llmclient.LLMClient, limiter *IntervalLimiter, logger *log.Logger) Route {
	if limiter != nil {
		limiter.SetInterval(cfg.Name, cfg.MinInterval)
	}
	return Route{
		Config: cfg,
		Client: Wrap(client,
			WithLogging(logger),
			Retry(PolicyFor(cfg)),
			RateLimit(limiter),
		),
	}
}
