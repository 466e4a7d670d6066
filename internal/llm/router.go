package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	llmclient "mindflow/internal/llm/client"
)

// ErrNoProviders is returned when a router has no routes to try.
var ErrNoProviders = errors.New("llm router: no providers configured")

// CompletionRequest is one inbound completion call.
type CompletionRequest struct {
	Prompt string
	System string
	// PreferredProvider moves the named route to the front of the chain.
	PreferredProvider string
	// ModelOverride pins the model id; see Router.Complete for its scope.
	ModelOverride string
	// ModelHint "flash" selects each provider's faster model.
	ModelHint string
}

// Route is one link of the fallback chain: a provider config plus the
// decorated client that calls it.
type Route struct {
	Config llmclient.ProviderConfig
	Client llmclient.LLMClient
}

// Router tries its routes strictly in order and returns the first success.
type Router struct {
	routes []Route
	log    *log.Logger
}

// NewRouter creates a Router over routes in fallback order.
func NewRouter(logger *log.Logger, routes ...Route) *Router {
	if logger == nil {
		logger = log.Default()
	}
	rs := make([]Route, 0, len(routes))
	for _, r := range routes {
		if r.Client != nil {
			rs = append(rs, r)
		}
	}
	return &Router{routes: rs, log: logger}
}

// Providers returns the route names in fallback order.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.Config.Name)
	}
	return out
}

// Complete runs the chain. ModelOverride applies to the preferred route when
// one is named and registered, otherwise to every route. When every route
// fails the last failure is returned unchanged.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (llmclient.Response, error) {
	routes, preferred := r.ordered(req.PreferredProvider)
	if len(routes) == 0 {
		return llmclient.Response{}, ErrNoProviders
	}
	var last error
	for i, rt := range routes {
		model := rt.Config.ModelFor(req.ModelHint)
		if o := strings.TrimSpace(req.ModelOverride); o != "" && (preferred == "" || preferred == rt.Config.Name) {
			model = o
		}
		resp, err := rt.Client.Complete(ctx, llmclient.Request{
			System: req.System,
			Prompt: req.Prompt,
			Model:  model,
		})
		if err == nil {
			return resp, nil
		}
		last = err
		if ctx.Err() != nil {
			return llmclient.Response{}, last
		}
		if i < len(routes)-1 {
			r.log.Printf("provider %s failed, falling back to %s: %v", rt.Config.Name, routes[i+1].Config.Name, err)
		}
	}
	return llmclient.Response{}, last
}

func (r *Router) ordered(preferred string) ([]Route, string) {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == "" {
		return r.routes, ""
	}
	idx := -1
	for i, rt := range r.routes {
		if rt.Config.Name == preferred {
			idx = i
			break
		}
	}
	if idx <= 0 {
		if idx == 0 {
			return r.routes, preferred
		}
		return r.routes, ""
	}
	out := make([]Route, 0, len(r.routes))
	out = append(out, r.routes[idx])
	out = append(out, r.routes[:idx]...)
	out = append(out, r.routes[idx+1:]...)
	return out, preferred
}

// Close closes every route's client.
func (r *Router) Close() error {
	var errs []error
	for _, rt := range r.routes {
		if err := rt.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", rt.Config.Name, err))
		}
	}
	return errors.Join(errs...)
}
