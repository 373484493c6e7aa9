package screening

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedSource reads comments from an RSS or Atom feed. The query passed to
// Fetch is the feed URL; each item becomes one comment.
type FeedSource struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewFeedSource returns a feed reader. A nil client uses a 15s timeout.
func NewFeedSource(client *http.Client) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedSource{client: client, parser: gofeed.NewParser()}
}

// Fetch downloads and parses the feed at url.
func (f *FeedSource) Fetch(ctx context.Context, url string) ([]CommentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "bullyscan/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: HTTP %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	records := make([]CommentRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		text := itemText(item)
		if text == "" {
			continue
		}
		rec := CommentRecord{Text: text, AuthorID: item.GUID}
		if item.PublishedParsed != nil {
			rec.Timestamp = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			rec.Timestamp = *item.UpdatedParsed
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			rec.Author = item.Authors[0].Name
		}
		if item.Image != nil {
			rec.AvatarURL = item.Image.URL
		}
		records = append(records, rec)
	}
	return records, nil
}

// itemText prefers the item body and falls back to its title.
func itemText(item *gofeed.Item) string {
	for _, v := range []string{item.Description, item.Content, item.Title} {
		if v = htmlText(v); v != "" {
			return v
		}
	}
	return ""
}

// htmlText returns the visible text of an HTML fragment with entities
// decoded and whitespace collapsed. Text nodes are joined with a space so
// block elements do not run words together.
func htmlText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				parts = append(parts, node.Text())
			case "script", "style", "#comment":
			default:
				walk(node)
			}
		})
	}
	walk(doc.Selection)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
