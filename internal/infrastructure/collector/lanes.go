package collector

import (
	"context"
	"strings"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/ports"
)

// Searcher is the subset of the Brave client the search lanes need.
type Searcher interface {
	News(ctx context.Context, query string, count int) ([]domain.RawRecord, error)
	Web(ctx context.Context, query string, count int) ([]domain.RawRecord, error)
}

// NewsSearch serves the search lane from the news index.
type NewsSearch struct {
	client Searcher
}

var _ ports.Collector = (*NewsSearch)(nil)

// NewNewsSearch builds the search lane over client.
func NewNewsSearch(client Searcher) *NewsSearch {
	return &NewsSearch{client: client}
}

// Lane reports the search lane.
func (n *NewsSearch) Lane() domain.Lane { return domain.LaneSearch }

// Collect runs q against the news index.
func (n *NewsSearch) Collect(ctx context.Context, q ports.Query) ([]domain.RawRecord, error) {
	return n.client.News(ctx, q.Text, q.Count)
}

// WebSearch serves the web lane from the general index.
type WebSearch struct {
	client Searcher
}

var _ ports.Collector = (*WebSearch)(nil)

// NewWebSearch builds the web lane over client.
func NewWebSearch(client Searcher) *WebSearch {
	return &WebSearch{client: client}
}

// Lane reports the web lane.
func (w *WebSearch) Lane() domain.Lane { return domain.LaneWeb }

// Collect runs q against the web index.
func (w *WebSearch) Collect(ctx context.Context, q ports.Query) ([]domain.RawRecord, error) {
	return w.client.Web(ctx, q.Text, q.Count)
}

// ForumSearch finds discussion threads through a site-restricted web search
// and keeps only links to individual threads.
type ForumSearch struct {
	client Searcher
	site   string
}

var _ ports.Collector = (*ForumSearch)(nil)

// NewForumSearch restricts queries to reddit.
func NewForumSearch(client Searcher) *ForumSearch {
	return &ForumSearch{client: client, site: "reddit.com"}
}

// Lane reports the forum lane.
func (f *ForumSearch) Lane() domain.Lane { return domain.LaneForum }

// Collect runs q restricted to the forum site and drops non-thread links.
func (f *ForumSearch) Collect(ctx context.Context, q ports.Query) ([]domain.RawRecord, error) {
	records, err := f.client.Web(ctx, "site:"+f.site+" "+q.Text, q.Count)
	if err != nil {
		return nil, err
	}

	threads := records[:0]
	for _, r := range records {
		if !IsForumThread(r.URL) {
			continue
		}
		r.Lane = domain.LaneForum
		threads = append(threads, r)
	}
	return threads, nil
}

// IsForumThread reports whether link points at a single reddit thread rather
// than a subreddit listing or a user page.
func IsForumThread(link string) bool {
	link = strings.ToLower(link)
	return strings.Contains(link, "reddit.com/r/") && strings.Contains(link, "/comments/")
}
