package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/weblog/internal/db"
)

const feedUserAgent = "weblog-importer/1.0 (+https://github.com/weblog)"

var (
	feedTagStripRe     = regexp.MustCompile(`[^a-z0-9]+`)
	invalidControlChar = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// FeedImportReport 汇总一次导入的结果。
type FeedImportReport struct {
	Created int
	Updated int
	Skipped int
}

// FeedImporter upserts blogmarks from an RSS or Atom bookmark feed.
type FeedImporter struct {
	content *ContentService
	client  httpDoer
	parser  *gofeed.Parser
}

// NewFeedImporter creates a FeedImporter writing through content.
func NewFeedImporter(content *ContentService) *FeedImporter {
	return &FeedImporter{
		content: content,
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (f *FeedImporter) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f.client = client
}

// Fetch loads and parses a feed from an http(s) URL or a local path.
func (f *FeedImporter) Fetch(ctx context.Context, source string) (*gofeed.Feed, error) {
	var body io.Reader
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create feed request: %w", err)
		}
		req.Header.Set("User-Agent", feedUserAgent)
		req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			sample, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
			return nil, fmt.Errorf("failed to fetch feed: status code %d, url: %s, body: %s", resp.StatusCode, source, string(sample))
		}
		body = resp.Body
	} else {
		file, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		body = file
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	feed, err := f.parser.ParseString(invalidControlChar.ReplaceAllString(string(raw), ""))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// Import upserts one blogmark per feed item keyed by FeedItemRef. Existing
// blogmarks are skipped unless overwrite is set.
func (f *FeedImporter) Import(feed *gofeed.Feed, overwrite bool, progress func(UpsertOutcome, *db.Blogmark)) (FeedImportReport, error) {
	var report FeedImportReport
	for _, item := range feed.Items {
		input, ok := BlogmarkFromFeedItem(item)
		if !ok {
			report.Skipped++
			continue
		}
		blogmark, outcome, err := f.content.UpsertBlogmark(input, overwrite)
		if err != nil {
			return report, fmt.Errorf("import %s: %w", input.LinkURL, err)
		}
		switch outcome {
		case UpsertCreated:
			report.Created++
		case UpsertUpdated:
			report.Updated++
		default:
			report.Skipped++
		}
		if progress != nil {
			progress(outcome, blogmark)
		}
	}
	return report, nil
}

// FeedItemRef is the import_ref of an item: "feed:" plus the SHA-1 of its
// GUID, or of its link when the GUID is empty.
func FeedItemRef(item *gofeed.Item) string {
	key := strings.TrimSpace(item.GUID)
	if key == "" {
		key = strings.TrimSpace(item.Link)
	}
	sum := sha1.Sum([]byte(key))
	return "feed:" + hex.EncodeToString(sum[:])
}

// BlogmarkFromFeedItem maps a feed item onto blogmark fields. Items without a
// link are rejected.
func BlogmarkFromFeedItem(item *gofeed.Item) (BlogmarkInput, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return BlogmarkInput{}, false
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = link
	}

	created := time.Now()
	if item.PublishedParsed != nil {
		created = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		created = *item.UpdatedParsed
	}

	commentary := strings.TrimSpace(item.Description)
	if commentary == "" {
		commentary = strings.TrimSpace(item.Content)
	}

	metadata := map[string]interface{}{"feed_guid": item.GUID}
	if item.Author != nil && item.Author.Name != "" {
		metadata["feed_author"] = item.Author.Name
	}

	return BlogmarkInput{
		ContentFields: ContentFields{
			Created:   created,
			Slug:      db.TruncateSlug(db.Slugify(title), 64),
			Tags:      feedTags(item.Categories),
			Metadata:  metadata,
			ImportRef: FeedItemRef(item),
		},
		LinkURL:    link,
		LinkTitle:  title,
		Commentary: commentary,
	}, true
}

// feedTags lowercases categories, splits space separated lists and drops
// anything that is not a valid tag after stripping punctuation.
func feedTags(categories []string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, category := range categories {
		for _, word := range strings.Fields(category) {
			tag := feedTagStripRe.ReplaceAllString(strings.ToLower(word), "")
			if !db.ValidTag(tag) {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}
