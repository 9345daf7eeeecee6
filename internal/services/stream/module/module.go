// Package module implements the stream service module
package module

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/logger"
	feeddomain "marketfeed/internal/services/feed/domain"
	streamhttp "marketfeed/internal/services/stream/http"
	"marketfeed/internal/services/stream/service"
)

// Ports exposed by the stream module
type Ports struct {
	Hub *service.Hub

	// Handler is mounted under the feed routes by the API composition
	Handler stdhttp.Handler
}

// Injected declares the cross module ports the stream module requires
type Injected struct {
	Subscribe feeddomain.SubscribePort
	Policy    feeddomain.PolicyPort
	Posts     feeddomain.PostLookupPort
}

// Module implements the stream service module
type Module struct {
	deps  modkit.Deps
	ports Ports
	inj   Injected
	log   logger.Logger

	resubscribe time.Duration
}

// New constructs the stream module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("stream"),
	}, opts...)...)

	var injected Injected
	if p, ok := b.Ports.(Injected); ok {
		injected = p
	}
	if injected.Subscribe == nil || injected.Policy == nil {
		panic("stream module requires Subscribe (feed) and Policy ports")
	}

	cfg := FromConfig(deps.Cfg)
	log := logger.Named("stream")
	hub := service.NewHub(injected.Policy, injected.Posts, service.NewMetrics(prometheus.DefaultRegisterer), *log)

	return &Module{
		deps: deps,
		inj:  injected,
		log:  *log,
		ports: Ports{
			Hub:     hub,
			Handler: streamhttp.Handler(hub, cfg.Heartbeat),
		},
		resubscribe: cfg.Resubscribe,
	}
}

// Start pumps the change feed into the hub until ctx ends, resubscribing
// with a fixed delay when the upstream listener fails
func (m *Module) Start(ctx context.Context) {
	go func() {
		for {
			events, cancel, err := m.inj.Subscribe.Subscribe(ctx)
			if err != nil {
				m.log.Warn().Err(err).Msg("change feed unavailable, live updates paused")
			} else {
				m.ports.Hub.Run(ctx, events)
				cancel()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.resubscribe):
			}
		}
	}()
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "stream" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
// the SSE route is registered by the feed module's router, see services/api
func (m *Module) MountRoutes(r httpkit.Router) {}
