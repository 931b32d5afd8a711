// Package feed reads the receiver's RSS feed of delivered insights.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one insight announced by the feed.
type Entry struct {
	Title     string
	Link      string
	Category  string
	Published time.Time
	Summary   string
}

// Fetch parses the feed at feedURL and returns up to limit entries in feed
// order. A limit of 0 or less returns every entry.
func Fetch(ctx context.Context, feedURL string, limit int) ([]Entry, error) {
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return nil, fmt.Errorf("invalid feed url %q: %w", feedURL, err)
	}

	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	var entries []Entry
	for _, item := range parsed.Items {
		if limit > 0 && len(entries) >= limit {
			break
		}
		if e := parseItem(item); e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func parseItem(item *gofeed.Item) *Entry {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	e := &Entry{
		Title:   title,
		Link:    link,
		Summary: strings.TrimSpace(item.Description),
	}
	if len(item.Categories) > 0 {
		e.Category = item.Categories[0]
	}
	if item.PublishedParsed != nil {
		e.Published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		e.Published = *item.UpdatedParsed
	}
	return e
}
