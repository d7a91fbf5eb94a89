// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads paper PDFs with rate limiting and idempotent
// skip-if-exists behavior.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-collector/internal/httputil"
	"github.com/pdiddy/paper-collector/pkg/types"
)

// Fetcher retrieves PDFs over HTTP. It is safe to re-run: a file already
// present at the destination path suppresses the network call entirely.
type Fetcher struct {
	Client *http.Client
	Config types.FetchConfig
}

// New builds a Fetcher. The client should come from httputil.NewClient so
// proxy settings apply.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	return &Fetcher{Client: client, Config: cfg}
}

// Fetch downloads pdfURL into destDir as [id].pdf and returns the local
// path. The skipped return value reports whether an existing file made
// the download unnecessary. Before each network call the fetcher blocks
// for the configured download delay. The payload is written to a temp
// file and renamed into place, so an existing valid file is never
// partially overwritten.
func (f *Fetcher) Fetch(ctx context.Context, pdfURL, destDir, id string) (path string, skipped bool, err error) {
	path = filepath.Join(destDir, id+".pdf")

	if _, statErr := os.Stat(path); statErr == nil {
		return path, true, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", destDir, err)
	}

	// Blocking wait before every network request.
	if f.Config.DownloadDelay > 0 {
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(f.Config.DownloadDelay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return "", false, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, pdfURL)
	}

	if err := validateContentType(resp.Header.Get("Content-Type")); err != nil {
		return "", false, fmt.Errorf("rejecting %s: %w", pdfURL, err)
	}

	if err := writeFileAtomic(path, resp.Body); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, false, nil
}

// validateContentType accepts application/pdf and servers that send no
// content type at all. Anything else is a malformed upstream response,
// regardless of what the URL suffix promises.
func validateContentType(ct string) error {
	if ct == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(ct), "application/pdf") {
		return nil
	}
	return fmt.Errorf("content type %q is not a PDF", ct)
}

// writeFileAtomic streams r to a temp file in the destination directory
// and renames it into place on success.
func writeFileAtomic(destPath string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
