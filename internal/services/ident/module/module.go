// Package module implements the ident service module
package module

import (
	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/services/ident/domain"
	identhttp "marketfeed/internal/services/ident/http"
	"marketfeed/internal/services/ident/repo"
	"marketfeed/internal/services/ident/service"
)

// Ports exposed by the ident module
type Ports struct {
	Viewer   domain.ViewerPort
	Resolver *identhttp.Resolver
}

// Module implements the ident service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new ident module
func New(deps modkit.Deps) *Module {
	svc := service.New(repo.NewPG(deps.PG))
	return &Module{
		deps: deps,
		ports: Ports{
			Viewer:   svc,
			Resolver: identhttp.NewResolver(svc),
		},
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "ident" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
