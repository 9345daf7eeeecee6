// Package module implements the interactions service module
package module

import (
	"context"
	"net/http"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/services/interactions/domain"
	inthttp "marketfeed/internal/services/interactions/http"
	"marketfeed/internal/services/interactions/repo"
	"marketfeed/internal/services/interactions/service"
)

// Ports exposed by the interactions module
type Ports struct {
	Recorder domain.RecorderPort
}

// Module implements the interactions service module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	svc   *service.Service
	ports Ports
}

// New constructs the interactions module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("interactions"),
		modkit.WithPrefix("/interactions"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	svc := service.New(
		repo.NewCH(deps.CH),
		service.Config{
			BatchSize:  cfg.BatchSize,
			FlushEvery: cfg.FlushEvery,
			QueueSize:  cfg.QueueSize,
		},
		*logger.Named("interactions"),
	)

	return &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Recorder: svc},
	}
}

// Start begins the flush loop
func (m *Module) Start(ctx context.Context) { m.svc.Start(ctx) }

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
		inthttp.Register(rr, m.ports.Recorder)
	})
}
