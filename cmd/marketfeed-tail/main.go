// marketfeed-tail renders a live feed in the terminal. It pages through
// the query endpoint and follows the event stream, buffering creations
// behind a "new posts" counter the way a browser client would
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"marketfeed/internal/feedclient"
	"marketfeed/internal/platform/logger"
	feeddomain "marketfeed/internal/services/feed/domain"
)

func main() {
	_ = godotenv.Load()

	var (
		fBase     = flag.String("base", envOr("MARKETFEED_BASE", "http://localhost:4000/api/v1"), "API base URL")
		fToken    = flag.String("token", os.Getenv("MARKETFEED_TOKEN"), "bearer token (empty browses as anonymous)")
		fSort     = flag.String("sort", feeddomain.SortTop, "sort: top, new or rising")
		fFilter   = flag.String("filter", "", "post type filter (NEW, PRICE_DROP, RESTOCK, CATALOG, AUCTION)")
		fCategory = flag.String("category", "", "category filter")
		fLimit    = flag.Int("limit", 20, "page size")
	)
	flag.Parse()

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := feeddomain.FeedQuery{
		Sort:     *fSort,
		Filter:   *fFilter,
		Category: *fCategory,
		Limit:    *fLimit,
	}

	view := feedclient.New(
		feedclient.NewClient(*fBase, *fToken),
		feedclient.WithQuery(query),
		feedclient.WithOnChange(render),
	)
	defer view.Close()

	stream := feedclient.NewStream(feedclient.StreamConfig{
		URL:   streamURL(*fBase, query),
		Token: *fToken,
	})

	go func() {
		err := stream.Run(ctx, view.Apply, func() {
			// a (re)connect may have missed events, resync through the query path
			view.Refresh()
		})
		if ctx.Err() == nil {
			l.Warn().Err(err).Msg("stream ended")
		}
	}()

	// enter shows buffered posts, m loads the next page, r refreshes
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			switch strings.TrimSpace(sc.Text()) {
			case "":
				view.ShowNewPosts()
			case "m":
				view.LoadMore()
			case "r":
				view.Refresh()
			case "q":
				stop()
				return
			}
		}
	}()

	view.LoadMore()
	<-ctx.Done()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func streamURL(base string, q feeddomain.FeedQuery) string {
	u, err := url.Parse(base + "/feed/stream")
	if err != nil {
		return base + "/feed/stream"
	}
	qv := u.Query()
	if q.Filter != "" {
		qv.Set("filter", q.Filter)
	}
	if q.Category != "" {
		qv.Set("category", q.Category)
	}
	u.RawQuery = qv.Encode()
	return u.String()
}

// render repaints the whole list; good enough for a tail tool
func render(s feedclient.Snapshot) {
	var b strings.Builder
	b.WriteString("\033[2J\033[H")

	switch {
	case s.Banner != "":
		fmt.Fprintf(&b, "!! %s\n\n", s.Banner)
	case s.NewCount > 0:
		fmt.Fprintf(&b, ">> %d new post(s) pending (arriving posts buffer until shown)\n\n", s.NewCount)
	}

	if s.State == feedclient.StateLoading && len(s.Items) == 0 {
		b.WriteString("loading...\n")
	}

	for i, p := range s.Items {
		price := ""
		if p.Pricing.Price > 0 {
			price = fmt.Sprintf("  %s %.2f", p.Pricing.Currency, p.Pricing.Price)
		}
		fmt.Fprintf(&b, "%2d. [%.3f] %s%s\n", i+1, p.Score, p.Headline, price)
		fmt.Fprintf(&b, "      %s  views=%d carts=%d\n", p.BrandName, p.Metrics.Views, p.Metrics.Carts)
	}
	if s.HasMore {
		b.WriteString("\n(more available)\n")
	}
	fmt.Print(b.String())
}
