package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/ports"
)

// FeedReader serves the feed lane from RSS and Atom documents.
type FeedReader struct {
	parser *gofeed.Parser
	logger zerolog.Logger
}

var _ ports.Collector = (*FeedReader)(nil)

// NewFeedReader builds a reader; client may be nil.
func NewFeedReader(client *http.Client, logger zerolog.Logger) *FeedReader {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	parser.UserAgent = "NewsRanker/1.0"
	return &FeedReader{parser: parser, logger: logger}
}

// Lane reports the feed lane.
func (f *FeedReader) Lane() domain.Lane { return domain.LaneFeed }

// Collect reads every feed of the query. A broken feed is logged and
// skipped; the call fails only when no feed could be read.
func (f *FeedReader) Collect(ctx context.Context, q ports.Query) ([]domain.RawRecord, error) {
	var (
		records []domain.RawRecord
		errs    []error
		ok      int
	)
	for _, link := range q.Feeds {
		feed, err := f.parser.ParseURLWithContext(link, ctx)
		if err != nil {
			f.logger.Warn().Err(err).Str("feed", link).Msg("feed unreadable")
			errs = append(errs, fmt.Errorf("feed %s: %w", link, err))
			continue
		}
		ok++
		for _, item := range feed.Items {
			if rec, keep := feedRecord(item); keep {
				records = append(records, rec)
			}
		}
	}
	if ok == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func feedRecord(item *gofeed.Item) (domain.RawRecord, bool) {
	if item == nil || item.Link == "" || item.Title == "" {
		return domain.RawRecord{}, false
	}

	desc := item.Description
	if desc == "" {
		desc = item.Content
	}

	var published *time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed
	}

	return domain.RawRecord{
		Title:       item.Title,
		URL:         item.Link,
		Description: desc,
		PublishedAt: published,
		Lane:        domain.LaneFeed,
	}, true
}
