// Package api composes the HTTP API for the application
package api

import (
	"context"
	stdhttp "net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/store"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/modkit/module"
	"marketfeed/internal/modkit/swaggerkit"

	metamod "marketfeed/internal/services/api/meta/module"
	feedmod "marketfeed/internal/services/feed/module"
	identmod "marketfeed/internal/services/ident/module"
	interactionsmod "marketfeed/internal/services/interactions/module"
	policymod "marketfeed/internal/services/policy/module"
	streammod "marketfeed/internal/services/stream/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// Ctx bounds the stream pump; defaults to Background
	Ctx context.Context
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	if opt.Ctx == nil {
		opt.Ctx = context.Background()
	}

	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// policy and ident have no routes of their own, they exist for their ports
	policyMod := policymod.New(deps)
	policyPorts := module.MustPortsOf[policymod.Ports](policyMod)

	identMod := identmod.New(deps)
	identPorts := module.MustPortsOf[identmod.Ports](identMod)

	// the live channel handler lives under the feed prefix, so the feed
	// module mounts it through its register hook. The stream module needs
	// the feed's Subscribe port, hence the late-bound handler
	var streamHandler stdhttp.Handler
	feedMod := feedmod.New(
		deps,
		modkit.WithPorts(feedmod.Injected{Policy: policyPorts.Policy}),
		modkit.WithRegister(func(rr httpkit.Router) {
			if streamHandler != nil {
				rr.Handle("/stream", streamHandler)
			}
		}),
	)
	feedPorts := module.MustPortsOf[feedmod.Ports](feedMod)

	streamMod := streammod.New(
		deps,
		modkit.WithPorts(streammod.Injected{
			Subscribe: feedPorts.Subscribe,
			Policy:    policyPorts.Policy,
			Posts:     feedPorts.Posts,
		}),
	)
	streamHandler = module.MustPortsOf[streammod.Ports](streamMod).Handler
	streamMod.Start(opt.Ctx)

	interactionsMod := interactionsmod.New(deps)
	interactionsMod.Start(opt.Ctx)

	mods := []module.Module{
		metamod.New(deps),
		policyMod,
		identMod,
		feedMod,
		streamMod,
		interactionsMod,
	}

	// unversioned liveness probe for orchestrators
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// versioned API with a common middleware stack; every request passes
	// the viewer resolver so handlers can read identity off the context
	stack := append(httpkit.CommonStack(), httpkit.Viewer(identPorts.Resolver))

	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
		if opt.EnableMetrics {
			r.Handle("/metrics", promhttp.Handler())
		}

		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
