package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	pnet "marketfeed/internal/platform/net"
	"marketfeed/internal/platform/net/middleware"

	perr "marketfeed/internal/platform/errors"
)

type fakeViewerPort struct {
	vid, acct, org string
	err            error
}

func (f fakeViewerPort) Resolve(_ *http.Request) (string, string, string, error) {
	return f.vid, f.acct, f.org, f.err
}

func writeStub(w http.ResponseWriter, status int, _ any) {
	w.WriteHeader(status)
}

func TestViewerNilPortPassesThrough(t *testing.T) {
	mw := middleware.Viewer(nil, writeStub)

	var sawViewer string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawViewer = pnet.ViewerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sawViewer != "" {
		t.Fatalf("anonymous request carried viewer %q", sawViewer)
	}
}

func TestViewerResolveErrorShortCircuits(t *testing.T) {
	p := fakeViewerPort{err: perr.Unauthorizedf("bad token")}
	mw := middleware.Viewer(p, writeStub)

	called := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if called {
		t.Fatal("handler ran after resolve failure")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestViewerStashesIdentity(t *testing.T) {
	p := fakeViewerPort{vid: "v1", acct: "BUSINESS", org: "org-9"}
	mw := middleware.Viewer(p, writeStub)

	var vid, acct, org string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vid = pnet.ViewerID(r.Context())
		acct = pnet.AccountType(r.Context())
		org = pnet.OrgID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if vid != "v1" || acct != "BUSINESS" || org != "org-9" {
		t.Fatalf("identity = (%q, %q, %q)", vid, acct, org)
	}
}
