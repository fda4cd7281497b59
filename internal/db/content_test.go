package db

import (
	"strings"
	"testing"
)

func TestEntryBeforeSaveBuildsSearchColumns(t *testing.T) {
	entry := Entry{
		Title: "Django &amp; Go",
		Body:  "<p>Some <em>Body</em> text</p>",
		Tags:  []Tag{{Tag: "django"}, {Tag: "go"}},
	}

	if err := entry.BeforeSave(nil); err != nil {
		t.Fatalf("before save: %v", err)
	}

	if entry.SearchA != "django & go" {
		t.Fatalf("unexpected weight A component %q", entry.SearchA)
	}
	if entry.SearchB != "django go" {
		t.Fatalf("unexpected weight B component %q", entry.SearchB)
	}
	if entry.SearchC != "some body text" {
		t.Fatalf("unexpected weight C component %q", entry.SearchC)
	}
	if !strings.Contains(entry.SearchDocument, "some body text") {
		t.Fatalf("search document misses body: %q", entry.SearchDocument)
	}
}

func TestEntryStringFallsBackToBody(t *testing.T) {
	entry := Entry{Body: "<p>one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen</p>"}

	got := entry.String()
	if !strings.HasSuffix(got, " …") {
		t.Fatalf("expected truncated string, got %q", got)
	}
	if strings.Contains(got, "sixteen") {
		t.Fatalf("expected at most 15 words, got %q", got)
	}
}

func TestBlogmarkHelpers(t *testing.T) {
	b := Blogmark{LinkURL: "https://example.com/some/path", Commentary: "great"}

	if got := b.LinkDomain(); got != "example.com" {
		t.Fatalf("unexpected domain %q", got)
	}
	if got := b.WordCount(); got != "1 word" {
		t.Fatalf("unexpected word count %q", got)
	}

	b.Commentary = "two words"
	if got := b.WordCount(); got != "2 words" {
		t.Fatalf("unexpected word count %q", got)
	}
}

func TestQuotationTitle(t *testing.T) {
	q := Quotation{Source: "Ada"}
	if got := q.Title(); got != "A quote from Ada" {
		t.Fatalf("unexpected title %q", got)
	}
}
