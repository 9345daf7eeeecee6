// Package domain defines the org policy ports
package domain

import (
	"context"

	"marketfeed/internal/core/caps"
)

// PolicyPort resolves an org's visibility policy.
// nil with nil error means no policy on record (the caller's default applies)
type PolicyPort interface {
	GetOrgPolicy(ctx context.Context, orgID string) (*caps.OrgPolicy, error)
}

// StorePort is the persistent policy lookup
type StorePort interface {
	// OrgPolicy returns ok=false when no row exists for the org
	OrgPolicy(ctx context.Context, orgID string) (caps.OrgPolicy, bool, error)
}
