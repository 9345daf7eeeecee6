// Package service implements viewer identity resolution
package service

import (
	"context"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/services/ident/domain"
	"marketfeed/internal/services/ident/repo"
)

// Service implements domain.ViewerPort
type Service struct {
	tokens *repo.PG
}

// New constructs the ident service
func New(tokens *repo.PG) *Service { return &Service{tokens: tokens} }

var _ domain.ViewerPort = (*Service)(nil)

// GetViewerContext implements domain.ViewerPort
func (s *Service) GetViewerContext(ctx context.Context, token string) (caps.Viewer, error) {
	if token == "" {
		return domain.Anonymous(), nil
	}
	return s.tokens.ViewerByTokenHash(ctx, domain.TokenHash(token))
}
