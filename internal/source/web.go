// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-collector/pkg/types"
)

// WebSource adapts an arbitrary web URL into a paper descriptor. A URL is
// either a direct PDF link or a page containing one.
type WebSource struct {
	Client *http.Client
	Config types.SourceConfig
}

// Name returns the source identifier.
func (s *WebSource) Name() string { return "web" }

// PageLink is what ResolvePDFLink recovered from a page.
type PageLink struct {
	// PDFURL is the direct PDF link, or "" when the page has none.
	PDFURL string

	// Title is the page title, when the page was fetched and had one.
	Title string
}

// Describe builds a descriptor for a URL paper. The ID is a hash of the
// original URL so repeated ingests of the same URL converge on one record.
func (s *WebSource) Describe(pageURL string, link PageLink) types.Paper {
	return types.Paper{
		ID:        URLHash(pageURL),
		Title:     link.Title,
		SourceURL: pageURL,
		PDFURL:    link.PDFURL,
		Source:    "web",
	}
}

// ResolvePDFLink finds the direct PDF URL for pageURL. A URL already
// ending in .pdf is returned as-is; otherwise the page is fetched and the
// first hyperlink whose path ends in .pdf wins, resolved against the
// page's origin. The page title rides along when available.
func (s *WebSource) ResolvePDFLink(ctx context.Context, pageURL string) (PageLink, error) {
	if strings.HasSuffix(strings.ToLower(pageURL), ".pdf") {
		return PageLink{PDFURL: pageURL}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return PageLink{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return PageLink{}, fmt.Errorf("fetching page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PageLink{}, fmt.Errorf("page %s returned HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageLink{}, fmt.Errorf("parsing page %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return PageLink{}, fmt.Errorf("parsing page URL: %w", err)
	}

	link := PageLink{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			return true
		}
		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return true
		}
		link.PDFURL = base.ResolveReference(ref).String()
		return false
	})

	return link, nil
}

// URLHash derives a stable ID for an arbitrary URL.
func URLHash(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x", h[:16])
}
