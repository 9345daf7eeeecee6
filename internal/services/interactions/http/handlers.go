// Package http provides the interaction tracking endpoint
package http

import (
	stdhttp "net/http"

	"marketfeed/internal/modkit/httpkit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/net/http/bind"
	identdomain "marketfeed/internal/services/ident/domain"
	"marketfeed/internal/services/interactions/domain"
)

// TrackInput is the request body for an interaction
type TrackInput struct {
	PostID string `json:"postId" validate:"required,max=64"`
	Kind   string `json:"kind"   validate:"required,oneof=view click cart"`
}

// Register mounts interaction endpoints on the given router
func Register(r httpkit.Router, rec domain.RecorderPort) {
	h := &handlers{rec: rec}
	httpkit.PostJSON[TrackInput](r, "/", h.track)
}

type handlers struct{ rec domain.RecorderPort }

// @Summary Record an engagement signal against a post
// @Tags Interactions
// @Accept json
// @Produce json
// @Param body body TrackInput true "interaction"
// @Success 200 {object} map[string]bool "accepted"
// @Router /interactions [post]
func (h *handlers) track(r *stdhttp.Request, in TrackInput) (any, error) {
	if err := bind.Get().Validator.Struct(in); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		return nil, perr.InvalidArgf("%s: %s", field, msg)
	}

	viewer := identdomain.ViewerFrom(r.Context())
	_ = h.rec.Record(domain.Interaction{
		PostID:   in.PostID,
		ViewerID: viewer.ID,
		Kind:     in.Kind,
	})
	return map[string]bool{"accepted": true}, nil
}
