// Package module implements the feed service module
package module

import (
	"net/http"

	"marketfeed/internal/core/rank"
	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/feed/domain"
	feedhttp "marketfeed/internal/services/feed/http"
	"marketfeed/internal/services/feed/repo"
	"marketfeed/internal/services/feed/service"
)

// Ports exposed by the feed module
type Ports struct {
	Query     domain.QueryPort
	Subscribe domain.SubscribePort

	// Posts is the narrow post read surface the stream hub uses to
	// resolve hintless events
	Posts domain.PostLookupPort
}

// Injected declares the cross module ports the feed module requires
type Injected struct {
	Policy domain.PolicyPort
}

// Module implements the feed service module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)
}

// New constructs the feed module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("feed"),
		modkit.WithPrefix("/feed"),
	}, opts...)...)

	var injected Injected
	if p, ok := b.Ports.(Injected); ok {
		injected = p
	}
	if injected.Policy == nil {
		panic("feed module requires Policy port (from services/policy)")
	}

	cfg := FromConfig(deps.Cfg)
	engine, err := rank.New(cfg.Weights, cfg.Params)
	if err != nil {
		panic("feed module: " + err.Error())
	}

	log := logger.Named("feed")
	posts := repo.NewPG(deps.PG)
	svc := service.New(
		posts,
		repo.NewVelocity(deps.CH, cfg.Params.RisingWindow),
		injected.Policy,
		engine,
		service.Config{
			DefaultLimit:   cfg.DefaultLimit,
			MaxLimit:       cfg.MaxLimit,
			CandidateLimit: cfg.CandidateLimit,
		},
		*log,
	)

	// the LISTEN seam is optional; without it subscriptions fail Unavailable
	notifier, _ := deps.PG.(store.Notifier)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports: Ports{
			Query:     svc,
			Subscribe: repo.NewChangeFeed(notifier, *log),
			Posts:     posts,
		},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		feedhttp.Register(r, m.ports.Query)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return m.prefix }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}
