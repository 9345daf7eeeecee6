// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const (
	keyViewerID    ctxKey = "viewer_id"
	keyAccountType ctxKey = "account_type"
	keyOrgID       ctxKey = "org_id"
)

// WithRequest annotates context with the request id so chimw.GetReqID can retrieve it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithViewer annotates context with the resolved viewer identity
// accountType is PERSONAL, BUSINESS, or ENTERPRISE; orgID may be empty
func WithViewer(ctx context.Context, viewerID, accountType, orgID string) context.Context {
	if viewerID != "" {
		ctx = context.WithValue(ctx, keyViewerID, viewerID)
	}
	if accountType != "" {
		ctx = context.WithValue(ctx, keyAccountType, accountType)
	}
	if orgID != "" {
		ctx = context.WithValue(ctx, keyOrgID, orgID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// ViewerID returns the viewer id on the context if present
func ViewerID(ctx context.Context) string {
	if v, ok := ctx.Value(keyViewerID).(string); ok {
		return v
	}
	return ""
}

// AccountType returns the viewer account type on the context if present
func AccountType(ctx context.Context) string {
	if v, ok := ctx.Value(keyAccountType).(string); ok {
		return v
	}
	return ""
}

// OrgID returns the viewer org id on the context if present
func OrgID(ctx context.Context) string {
	if v, ok := ctx.Value(keyOrgID).(string); ok {
		return v
	}
	return ""
}
