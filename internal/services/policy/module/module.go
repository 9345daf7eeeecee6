// Package module implements the policy service module
package module

import (
	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/services/policy/domain"
	"marketfeed/internal/services/policy/repo"
	"marketfeed/internal/services/policy/service"
)

// Ports exposed by the policy module
type Ports struct {
	Policy domain.PolicyPort
}

// Module implements the policy service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new policy module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(repo.NewPG(deps.PG), service.Config{
		CacheTTL:   opts.CacheTTL,
		FailClosed: opts.FailClosed,
	})
	return &Module{deps: deps, ports: Ports{Policy: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "policy" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
