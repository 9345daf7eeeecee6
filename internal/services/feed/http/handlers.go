// Package http provides http transport for the feed
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"marketfeed/internal/modkit/httpkit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/net/http/bind"
	"marketfeed/internal/services/feed/domain"
	identdomain "marketfeed/internal/services/ident/domain"
)

// Register mounts feed endpoints on the given router
func Register(r httpkit.Router, q domain.QueryPort) {
	h := &handlers{q: q}
	httpkit.Get(r, "/", h.feed)
	httpkit.Get(r, "/posts/{id}", h.post)
}

type handlers struct{ q domain.QueryPort }

// @Summary Ranked marketplace feed page
// @Tags Feed
// @Produce json
// @Param sort query string false "top, new or rising" default(top)
// @Param filter query string false "post type filter"
// @Param category query string false "category filter"
// @Param after query string false "opaque cursor from a previous page"
// @Param limit query int false "page size" default(20)
// @Success 200 {object} domain.FeedPage "ok"
// @Router /feed [get]
func (h *handlers) feed(r *stdhttp.Request) (any, error) {
	in, err := bindQuery(r)
	if err != nil {
		return nil, err
	}

	page, err := h.q.Query(r.Context(), identdomain.ViewerFrom(r.Context()), in)
	if err != nil {
		if perr.IsUnavailable(err) {
			// transient store trouble degrades to an empty page so an
			// already-populated client keeps what it has
			logger.C(r.Context()).Warn().Err(err).Msg("feed degraded to empty page")
			return domain.FeedPage{Items: []domain.FeedItem{}, Degraded: true}, nil
		}
		return nil, err
	}
	return page, nil
}

// @Summary Single post with score breakdown and reasons
// @Tags Feed
// @Produce json
// @Param id path string true "post id"
// @Success 200 {object} domain.FeedItem "ok"
// @Failure 404 {object} httpkit.Envelope "absent or not visible"
// @Router /feed/posts/{id} [get]
func (h *handlers) post(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return nil, perr.InvalidArgf("missing post id")
	}
	return h.q.GetPost(r.Context(), identdomain.ViewerFrom(r.Context()), id)
}

// bindQuery reads the feed query off the URL and validates it
func bindQuery(r *stdhttp.Request) (domain.FeedQuery, error) {
	qv := r.URL.Query()
	in := domain.FeedQuery{
		Sort:     qv.Get("sort"),
		Filter:   qv.Get("filter"),
		Category: qv.Get("category"),
		Cursor:   qv.Get("after"),
	}
	if raw := qv.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.FeedQuery{}, perr.Newf(perr.ErrorCodeValidation, "limit must be an integer")
		}
		in.Limit = n
	}
	if err := bind.Get().Validator.Struct(in); err != nil {
		_, msg := bind.ValidationFieldAndMessage(err)
		return domain.FeedQuery{}, perr.Newf(perr.ErrorCodeValidation, "%s", msg)
	}
	return in, nil
}
