// Package http adapts viewer resolution to the platform auth middleware
package http

import (
	stdhttp "net/http"
	"strings"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/services/ident/domain"
)

// Resolver satisfies the middleware ViewerPort
type Resolver struct{ svc domain.ViewerPort }

// NewResolver wraps the ident service for the middleware seam
func NewResolver(svc domain.ViewerPort) *Resolver { return &Resolver{svc: svc} }

// Resolve extracts credentials from the request and resolves the viewer.
// No credentials resolves to the anonymous viewer, not an error
func (a *Resolver) Resolve(r *stdhttp.Request) (string, string, string, error) {
	token, err := bearer(r)
	if err != nil {
		return "", "", "", err
	}
	v, err := a.svc.GetViewerContext(r.Context(), token)
	if err != nil {
		return "", "", "", err
	}
	return v.ID, string(v.AccountType), v.OrgID, nil
}

// bearer pulls the token from the Authorization header, falling back to
// the access_token query param for EventSource clients that cannot set
// headers
func bearer(r *stdhttp.Request) (string, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return r.URL.Query().Get("access_token"), nil
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", perr.Unauthorizedf("malformed authorization header")
	}
	return token, nil
}
