// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/paper-collector/pkg/types"
)

func testWebSource(client *http.Client) *WebSource {
	return &WebSource{
		Client: client,
		Config: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{UserAgent: "paper-collector-test/0.1"},
		},
	}
}

func TestResolvePDFLinkDirect(t *testing.T) {
	s := testWebSource(http.DefaultClient)
	got, err := s.ResolvePDFLink(context.Background(), "https://example.com/paper.PDF")
	if err != nil {
		t.Fatalf("ResolvePDFLink: %v", err)
	}
	// Direct links short-circuit without a network call.
	if got.PDFURL != "https://example.com/paper.PDF" {
		t.Errorf("got %q", got.PDFURL)
	}
	if got.Title != "" {
		t.Errorf("Title = %q, want empty for direct links", got.Title)
	}
}

func TestResolvePDFLinkRelative(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>A Paper Page</title></head><body>
			<a href="/about">About</a>
			<a href="files/the-paper.pdf">Download PDF</a>
			<a href="/other.pdf">Another</a>
		</body></html>`)
	}))
	defer ts.Close()

	s := testWebSource(ts.Client())
	got, err := s.ResolvePDFLink(context.Background(), ts.URL+"/papers/index.html")
	if err != nil {
		t.Fatalf("ResolvePDFLink: %v", err)
	}
	// First .pdf link wins, resolved against the page URL.
	want := ts.URL + "/papers/files/the-paper.pdf"
	if got.PDFURL != want {
		t.Errorf("got %q, want %q", got.PDFURL, want)
	}
	if got.Title != "A Paper Page" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestResolvePDFLinkAbsolute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://cdn.example.com/x.pdf">PDF</a></body></html>`)
	}))
	defer ts.Close()

	s := testWebSource(ts.Client())
	got, err := s.ResolvePDFLink(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("ResolvePDFLink: %v", err)
	}
	if got.PDFURL != "https://cdn.example.com/x.pdf" {
		t.Errorf("got %q", got.PDFURL)
	}
}

func TestResolvePDFLinkNone(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/about">About</a></body></html>`)
	}))
	defer ts.Close()

	s := testWebSource(ts.Client())
	got, err := s.ResolvePDFLink(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("ResolvePDFLink: %v", err)
	}
	if got.PDFURL != "" {
		t.Errorf("got %q, want empty", got.PDFURL)
	}
}

func TestResolvePDFLinkHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	s := testWebSource(ts.Client())
	if _, err := s.ResolvePDFLink(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestDescribe(t *testing.T) {
	s := testWebSource(http.DefaultClient)
	p := s.Describe("https://example.com/paper-page", PageLink{
		PDFURL: "https://example.com/files/p.pdf",
		Title:  "A Paper Page",
	})

	if p.ID != URLHash("https://example.com/paper-page") {
		t.Errorf("ID = %q, want URL hash", p.ID)
	}
	if p.Title != "A Paper Page" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.SourceURL != "https://example.com/paper-page" {
		t.Errorf("SourceURL = %q", p.SourceURL)
	}
	if p.PDFURL != "https://example.com/files/p.pdf" {
		t.Errorf("PDFURL = %q", p.PDFURL)
	}
	if p.Source != "web" {
		t.Errorf("Source = %q", p.Source)
	}
}

func TestURLHashStable(t *testing.T) {
	a := URLHash("https://example.com/a")
	b := URLHash("https://example.com/a")
	c := URLHash("https://example.com/b")
	if a != b {
		t.Error("hash not stable for identical URLs")
	}
	if a == c {
		t.Error("hash collision for different URLs")
	}
	if len(a) != 32 {
		t.Errorf("len = %d, want 32", len(a))
	}
}
