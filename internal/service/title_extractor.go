package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TitleExtractor fetches a page and reads its <title>, used when writing blogmarks.
type TitleExtractor struct {
	client httpDoer
}

// NewTitleExtractor creates a TitleExtractor with a short timeout.
func NewTitleExtractor() *TitleExtractor {
	return &TitleExtractor{client: &http.Client{Timeout: 10 * time.Second}}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (e *TitleExtractor) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	e.client = client
}

// Extract returns the trimmed document title, or "" when the page has none.
func (e *TitleExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
