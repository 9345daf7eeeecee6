package middleware

import (
	"net/http"

	pnet "marketfeed/internal/platform/net"
)

// ViewerPort resolves the viewer identity behind a request
type ViewerPort interface {
	// Resolve returns the viewer id, account type, and optional org id
	// implementations decide whether anonymous requests resolve or fail
	Resolve(r *http.Request) (viewerID, accountType, orgID string, err error)
}

// Viewer resolves the caller through the port and stashes the identity on context
// a nil port leaves requests anonymous
func Viewer(p ViewerPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			vid, acct, org, err := p.Resolve(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithViewer(r.Context(), vid, acct, org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
