package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"time"

	perr "marketfeed/internal/platform/errors"
	phttp "marketfeed/internal/platform/net/http"
	feeddomain "marketfeed/internal/services/feed/domain"
)

// Client fetches feed pages over HTTP; it implements Fetcher
type Client struct {
	base  string
	token string
	http  *stdhttp.Client
}

// NewClient constructs the HTTP fetcher against a base URL like
// http://host:port/api/v1
func NewClient(base, token string) *Client {
	return &Client{
		base:  base,
		token: token,
		http:  &stdhttp.Client{Timeout: 15 * time.Second},
	}
}

var _ Fetcher = (*Client)(nil)

// FetchPage implements Fetcher
func (c *Client) FetchPage(ctx context.Context, q feeddomain.FeedQuery) (feeddomain.FeedPage, error) {
	u, err := url.Parse(c.base + "/feed")
	if err != nil {
		return feeddomain.FeedPage{}, err
	}
	qv := u.Query()
	if q.Sort != "" {
		qv.Set("sort", q.Sort)
	}
	if q.Filter != "" {
		qv.Set("filter", q.Filter)
	}
	if q.Category != "" {
		qv.Set("category", q.Category)
	}
	if q.Cursor != "" {
		qv.Set("after", q.Cursor)
	}
	if q.Limit > 0 {
		qv.Set("limit", strconv.Itoa(q.Limit))
	}
	u.RawQuery = qv.Encode()

	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, u.String(), nil)
	if err != nil {
		return feeddomain.FeedPage{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return feeddomain.FeedPage{}, perr.Unavailablef("feed fetch: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return feeddomain.FeedPage{}, perr.Unavailablef("feed fetch: %v", err)
	}

	var env struct {
		phttp.Envelope
		Data feeddomain.FeedPage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return feeddomain.FeedPage{}, perr.Unavailablef("feed fetch: bad envelope: %v", err)
	}
	if resp.StatusCode != stdhttp.StatusOK {
		if env.Code != 0 {
			return feeddomain.FeedPage{}, perr.Newf(env.Code, "%s", env.Error)
		}
		return feeddomain.FeedPage{}, fmt.Errorf("feed fetch: status %d", resp.StatusCode)
	}
	return env.Data, nil
}
