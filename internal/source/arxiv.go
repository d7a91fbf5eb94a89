// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source yields candidate paper descriptors from paper sources:
// the arXiv export feed and arbitrary web pages.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/paper-collector/internal/httputil"
	"github.com/pdiddy/paper-collector/pkg/types"
)

// Base URLs for the arXiv API. Declared as vars so tests can substitute
// an httptest server.
var (
	arxivQueryBase = "https://export.arxiv.org/api/query"
	arxivPDFBase   = "https://arxiv.org/pdf/"
	arxivAbsBase   = "https://arxiv.org/abs/"
)

// arxivIDPattern matches an arXiv short ID with optional version suffix.
var arxivIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,5})(v\d+)?`)

// ArxivSource queries the arXiv Atom export feed. Each Search call issues
// one network query; results are finite and not restartable.
type ArxivSource struct {
	Client *http.Client
	Config types.SourceConfig

	// BaseURL overrides the arXiv API endpoint when non-empty.
	BaseURL string
}

func (s *ArxivSource) queryBase() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return arxivQueryBase
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Search runs an arXiv API query (e.g. "cat:cs.LG") sorted newest-first
// and maps feed entries to Papers. Entries without a recognizable arXiv
// ID are dropped.
func (s *ArxivSource) Search(ctx context.Context, query string, maxResults int) ([]types.Paper, error) {
	if maxResults <= 0 {
		maxResults = s.Config.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	apiURL := fmt.Sprintf("%s?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		s.queryBase(), url.QueryEscape(query), maxResults)

	feed, err := s.fetchFeed(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	return s.mapEntries(feed), nil
}

// Lookup retrieves the descriptor for a single arXiv ID via the feed's
// id_list parameter. Returns an error when the ID resolves to no entry.
func (s *ArxivSource) Lookup(ctx context.Context, arxivID string) (types.Paper, error) {
	apiURL := fmt.Sprintf("%s?id_list=%s", s.queryBase(), url.QueryEscape(arxivID))

	feed, err := s.fetchFeed(ctx, apiURL)
	if err != nil {
		return types.Paper{}, err
	}
	papers := s.mapEntries(feed)
	if len(papers) == 0 {
		return types.Paper{}, fmt.Errorf("no entry found for arXiv ID %s", arxivID)
	}
	return papers[0], nil
}

func (s *ArxivSource) fetchFeed(ctx context.Context, apiURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}
	return feed, nil
}

func (s *ArxivSource) mapEntries(feed *gofeed.Feed) []types.Paper {
	var papers []types.Paper
	for _, item := range feed.Items {
		id := ExtractArxivID(item.GUID)
		if id == "" {
			id = ExtractArxivID(item.Link)
		}
		if id == "" {
			continue
		}

		p := types.Paper{
			ID:         id,
			Title:      strings.TrimSpace(item.Title),
			Abstract:   strings.TrimSpace(item.Description),
			Categories: item.Categories,
			SourceURL:  arxivAbsBase + id,
			PDFURL:     pdfLink(item, id),
			Source:     "arxiv",
		}
		for _, a := range item.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		if item.PublishedParsed != nil {
			p.Published = item.PublishedParsed.UTC()
		}
		papers = append(papers, p)
	}
	return papers
}

// pdfLink prefers the entry's explicit PDF link; the feed always carries
// one, but fall back to the conventional URL if it is missing.
func pdfLink(item *gofeed.Item, arxivID string) string {
	for _, l := range item.Links {
		if strings.Contains(l, "/pdf/") {
			return l
		}
	}
	return arxivPDFBase + arxivID + ".pdf"
}

// BuildQuery combines an optional free-text query with category filters
// into an arXiv search_query expression: "(query) AND (cat:a OR cat:b)".
func BuildQuery(freeText string, categories []string) string {
	var catExpr string
	if len(categories) > 0 {
		parts := make([]string, len(categories))
		for i, c := range categories {
			parts[i] = "cat:" + c
		}
		catExpr = strings.Join(parts, " OR ")
	}

	switch {
	case freeText != "" && catExpr != "":
		return fmt.Sprintf("(%s) AND (%s)", freeText, catExpr)
	case freeText != "":
		return freeText
	default:
		return catExpr
	}
}

// ExtractArxivID pulls an arXiv short ID out of a feed entry ID or an
// arxiv.org URL (abs or pdf form). Returns "" when none is present.
// A version suffix is stripped so re-crawls of new versions hit the
// same record.
func ExtractArxivID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "/abs/") && !strings.Contains(rawURL, "/pdf/") {
		return ""
	}
	m := arxivIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsArxivURL reports whether the URL points at arxiv.org.
func IsArxivURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org")
}
