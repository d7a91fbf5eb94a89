// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/paper-collector/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

func testFetcher(client *http.Client) *Fetcher {
	return New(client, types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "paper-collector-test/0.1",
		},
		DownloadDelay: 0,
	})
}

func TestFetchDownloads(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()
	path, skipped, err := testFetcher(ts.Client()).Fetch(context.Background(), ts.URL+"/2104.08653.pdf", dir, "2104.08653")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if skipped {
		t.Error("expected download, got skipped")
	}
	if path != filepath.Join(dir, "2104.08653.pdf") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("content = %q, want %q", string(data), fakePDFContent)
	}
}

func TestFetchSkipsExisting(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "2104.08653.pdf")
	if err := os.WriteFile(existing, []byte("original bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, skipped, err := testFetcher(ts.Client()).Fetch(context.Background(), ts.URL+"/x.pdf", dir, "2104.08653")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !skipped {
		t.Error("expected skipped, got download")
	}
	if path != existing {
		t.Errorf("path = %q, want %q", path, existing)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("network calls = %d, want 0", calls)
	}

	// File stays byte-identical.
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original bytes" {
		t.Errorf("existing file modified: %q", string(data))
	}
}

func TestFetchRejectsNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dir := t.TempDir()
	_, _, err := testFetcher(ts.Client()).Fetch(context.Background(), ts.URL+"/missing.pdf", dir, "missing")
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.pdf")); !os.IsNotExist(statErr) {
		t.Error("no file should be written on failure")
	}
}

func TestFetchRejectsWrongContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>not a pdf</html>")
	}))
	defer ts.Close()

	dir := t.TempDir()
	// Even a URL that ends in .pdf fails when the server sends HTML.
	_, _, err := testFetcher(ts.Client()).Fetch(context.Background(), ts.URL+"/fake.pdf", dir, "fake")
	if err == nil {
		t.Fatal("expected error for text/html content type")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "fake.pdf")); !os.IsNotExist(statErr) {
		t.Error("no file should be written on content-type rejection")
	}
}

func TestFetchAcceptsEmptyContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's content sniffing so no Content-Type is sent.
		w.Header()["Content-Type"] = nil
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := t.TempDir()
	_, _, err := testFetcher(ts.Client()).Fetch(context.Background(), ts.URL+"/p.pdf", dir, "p")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchAppliesDelay(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	f := New(ts.Client(), types.FetchConfig{
		HTTPConfig:    types.HTTPConfig{Timeout: 10 * time.Second},
		DownloadDelay: 50 * time.Millisecond,
	})

	start := time.Now()
	_, _, err := f.Fetch(context.Background(), ts.URL+"/d.pdf", t.TempDir(), "d")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed %v, want >= 50ms delay", elapsed)
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		ct      string
		wantErr bool
	}{
		{"application/pdf", false},
		{"application/pdf; charset=binary", false},
		{"APPLICATION/PDF", false},
		{"", false},
		{"text/html", true},
		{"application/octet-stream", true},
	}
	for _, tt := range tests {
		err := validateContentType(tt.ct)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateContentType(%q) err = %v, wantErr %v", tt.ct, err, tt.wantErr)
		}
	}
}

func TestWriteAndReadMetadata(t *testing.T) {
	dir := t.TempDir()
	p := types.Paper{
		ID:        "2104.08653",
		Title:     "Deep Learning for X",
		Authors:   []string{"Alice Smith", "Bob Jones"},
		Abstract:  "An abstract.",
		SourceURL: "https://arxiv.org/abs/2104.08653",
		PDFURL:    "https://arxiv.org/pdf/2104.08653.pdf",
		Published: time.Date(2021, 4, 18, 0, 0, 0, 0, time.UTC),
		Source:    "arxiv",
	}

	if err := WriteMetadata(p, dir); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	got, err := ReadMetadata(dir, "2104.08653")
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if got.Title != p.Title {
		t.Errorf("Title = %q, want %q", got.Title, p.Title)
	}
	if len(got.Authors) != 2 {
		t.Errorf("len(Authors) = %d, want 2", len(got.Authors))
	}
	if !got.Published.Equal(p.Published) {
		t.Errorf("Published = %v, want %v", got.Published, p.Published)
	}
}
