// Package service implements cached org policy resolution
package service

import (
	"context"
	"sync"
	"time"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/services/policy/domain"
)

// Config tunes the policy cache and the miss behavior
type Config struct {
	CacheTTL time.Duration

	// FailClosed synthesizes a deny-all policy when no record exists,
	// instead of the documented fail-open default
	FailClosed bool
}

// Service implements domain.PolicyPort with a TTL cache.
// Misses are cached too so absent policies do not hammer the store
type Service struct {
	store domain.StorePort
	cfg   Config

	mu    sync.RWMutex
	cache map[string]entry

	now func() time.Time // seam
}

type entry struct {
	pol     *caps.OrgPolicy
	expires time.Time
}

// New constructs the policy service
func New(store domain.StorePort, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &Service{store: store, cfg: cfg, cache: map[string]entry{}, now: time.Now}
}

var _ domain.PolicyPort = (*Service)(nil)

// GetOrgPolicy implements domain.PolicyPort
func (s *Service) GetOrgPolicy(ctx context.Context, orgID string) (*caps.OrgPolicy, error) {
	if orgID == "" {
		return nil, nil
	}

	s.mu.RLock()
	e, ok := s.cache[orgID]
	s.mu.RUnlock()
	if ok && s.now().Before(e.expires) {
		return e.pol, nil
	}

	pol, found, err := s.store.OrgPolicy(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var out *caps.OrgPolicy
	switch {
	case found:
		out = &pol
	case s.cfg.FailClosed:
		out = caps.DenyAll(orgID)
	}

	s.mu.Lock()
	s.cache[orgID] = entry{pol: out, expires: s.now().Add(s.cfg.CacheTTL)}
	s.mu.Unlock()
	return out, nil
}
