// Package domain defines the types and interfaces for viewer identity
package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"marketfeed/internal/core/caps"
	pnet "marketfeed/internal/platform/net"
)

// ViewerPort resolves a bearer token into a viewer context
type ViewerPort interface {
	// GetViewerContext returns the viewer for a token; empty token yields
	// the anonymous viewer, an unknown or revoked token is Unauthorized
	GetViewerContext(ctx context.Context, token string) (caps.Viewer, error)
}

// TokenHash is the stored form of a bearer token
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Anonymous is the viewer used when no credentials are presented
func Anonymous() caps.Viewer {
	return caps.Viewer{AccountType: caps.AccountPersonal}
}

// ViewerFrom rebuilds the viewer the auth middleware stashed on the context
func ViewerFrom(ctx context.Context) caps.Viewer {
	at := pnet.AccountType(ctx)
	if at == "" {
		return Anonymous()
	}
	return caps.Viewer{
		ID:          pnet.ViewerID(ctx),
		AccountType: caps.AccountType(at),
		OrgID:       pnet.OrgID(ctx),
	}
}
