// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes the collection stages: source search, PDF
// fetch, text extraction, duplicate detection, and persistence. Each
// stage failure is reported per paper; the batch keeps going.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/paper-collector/internal/dedupe"
	"github.com/pdiddy/paper-collector/internal/extract"
	"github.com/pdiddy/paper-collector/internal/fetch"
	"github.com/pdiddy/paper-collector/internal/source"
	"github.com/pdiddy/paper-collector/internal/staging"
	"github.com/pdiddy/paper-collector/internal/store"
	"github.com/pdiddy/paper-collector/pkg/types"
)

// flushEvery is how many staged downloads accumulate before the staging
// file is rewritten mid-batch.
const flushEvery = 5

// BatchResult holds the outcome of a batch collection run.
type BatchResult struct {
	Processed  int
	Downloaded int
	Skipped    int
	Duplicates int
	Failed     int
}

// Total returns the number of papers the batch considered.
func (r BatchResult) Total() int {
	return r.Processed + r.Downloaded + r.Skipped + r.Duplicates + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline wires the collection stages together around shared config.
type Pipeline struct {
	cfg      types.CollectorConfig
	store    *store.Store
	fetcher  *fetch.Fetcher
	arxiv    *source.ArxivSource
	web      *source.WebSource
	chain    *extract.Chain
	detector *dedupe.Detector
	out      io.Writer
}

// New builds a Pipeline from already-constructed stages. Progress lines
// go to w.
func New(cfg types.CollectorConfig, st *store.Store, fetcher *fetch.Fetcher,
	arxiv *source.ArxivSource, web *source.WebSource, chain *extract.Chain,
	w io.Writer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		fetcher:  fetcher,
		arxiv:    arxiv,
		web:      web,
		chain:    chain,
		detector: dedupe.New(cfg.Dedupe),
		out:      w,
	}
}

// pdfDir returns the PDF download directory under the data dir.
func (p *Pipeline) pdfDir() string {
	return filepath.Join(p.cfg.DataDir, "papers", "pdf")
}

// textDir returns the extracted-text directory under the data dir.
func (p *Pipeline) textDir() string {
	return filepath.Join(p.cfg.DataDir, "papers", "text")
}

// papersDir is where the staging queue lives.
func (p *Pipeline) papersDir() string {
	return filepath.Join(p.cfg.DataDir, "papers")
}

// Collect runs the full pipeline: search the configured arXiv categories,
// download each new paper, extract its text, check for duplicates, and
// persist it. With forceUpdate, papers already in the database are
// re-crawled instead of skipped.
func (p *Pipeline) Collect(ctx context.Context, maxResults int, forceUpdate bool) (BatchResult, error) {
	var result BatchResult

	query := source.BuildQuery(p.cfg.Source.SearchQuery, p.cfg.Source.Categories)
	papers, err := p.arxiv.Search(ctx, query, maxResults)
	if err != nil {
		return result, fmt.Errorf("searching arXiv: %w", err)
	}
	fmt.Fprintf(p.out, "Found %d papers for query %q\n", len(papers), query)

	for _, paper := range papers {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if !forceUpdate {
			exists, err := p.store.HasPaper(paper.ID)
			if err != nil {
				return result, err
			}
			if exists {
				fmt.Fprintf(p.out, "skipped: %s (already collected)\n", paper.ID)
				result.Skipped++
				continue
			}
		}

		if err := p.collectOne(ctx, paper, &result); err != nil {
			fmt.Fprintf(p.out, "failed:  %s (%v)\n", paper.ID, err)
			result.Failed++
		}
	}

	fmt.Fprintf(p.out, "\nBatch summary: %d processed, %d skipped, %d duplicates, %d failed (total: %d)\n",
		result.Processed, result.Skipped, result.Duplicates, result.Failed, result.Total())
	return result, nil
}

// collectOne downloads and processes a single paper, updating counts for
// the non-error outcomes.
func (p *Pipeline) collectOne(ctx context.Context, paper types.Paper, result *BatchResult) error {
	fmt.Fprintf(p.out, "downloading: %s (%s)\n", paper.ID, paper.Title)
	pdfPath, skipped, err := p.fetcher.Fetch(ctx, paper.PDFURL, p.pdfDir(), paper.ID)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Fprintf(p.out, "  PDF already on disk: %s\n", pdfPath)
	}
	if err := fetch.WriteMetadata(paper, p.pdfDir()); err != nil {
		fmt.Fprintf(p.out, "  warning: metadata write failed: %v\n", err)
	}

	dup, err := p.processPaper(ctx, paper, pdfPath)
	if err != nil {
		return err
	}
	if dup {
		result.Duplicates++
		return nil
	}
	result.Processed++
	return nil
}

// DownloadOnly searches and downloads PDFs without extraction or
// persistence, staging each download for a later processing pass. The
// staging file is flushed every few downloads so an interrupted run
// loses little work.
func (p *Pipeline) DownloadOnly(ctx context.Context, maxResults int, query string) (BatchResult, error) {
	var result BatchResult

	if query == "" {
		query = source.BuildQuery(p.cfg.Source.SearchQuery, p.cfg.Source.Categories)
	}
	papers, err := p.arxiv.Search(ctx, query, maxResults)
	if err != nil {
		return result, fmt.Errorf("searching arXiv: %w", err)
	}
	fmt.Fprintf(p.out, "Found %d papers for query %q\n", len(papers), query)

	stage, err := staging.Open(p.papersDir())
	if err != nil {
		return result, err
	}

	sinceFlush := 0
	for _, paper := range papers {
		if ctx.Err() != nil {
			break
		}

		exists, err := p.store.HasPaper(paper.ID)
		if err != nil {
			return result, err
		}
		if exists || stage.Contains(paper.ID) {
			fmt.Fprintf(p.out, "skipped: %s (already collected or staged)\n", paper.ID)
			result.Skipped++
			continue
		}

		fmt.Fprintf(p.out, "downloading: %s (%s)\n", paper.ID, paper.Title)
		pdfPath, _, err := p.fetcher.Fetch(ctx, paper.PDFURL, p.pdfDir(), paper.ID)
		if err != nil {
			fmt.Fprintf(p.out, "failed:  %s (%v)\n", paper.ID, err)
			result.Failed++
			continue
		}
		if err := fetch.WriteMetadata(paper, p.pdfDir()); err != nil {
			fmt.Fprintf(p.out, "  warning: metadata write failed: %v\n", err)
		}

		stage.Append(types.StagingEntry{
			Paper:        paper,
			PDFPath:      pdfPath,
			DownloadedAt: time.Now().UTC(),
		})
		result.Downloaded++

		sinceFlush++
		if sinceFlush >= flushEvery {
			if err := stage.Flush(); err != nil {
				return result, err
			}
			sinceFlush = 0
		}
	}

	if err := stage.Flush(); err != nil {
		return result, err
	}
	fmt.Fprintf(p.out, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// ProcessStaged drains the staging queue: each staged paper is extracted,
// checked for duplicates, and persisted. Entries are removed on success,
// on a missing PDF, and when the paper landed in the database through
// another path; a persistence failure keeps the entry for a retry.
// max limits how many entries to process; zero means all.
func (p *Pipeline) ProcessStaged(ctx context.Context, max int) (BatchResult, error) {
	var result BatchResult

	stage, err := staging.Open(p.papersDir())
	if err != nil {
		return result, err
	}
	entries := stage.Entries()
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	fmt.Fprintf(p.out, "Processing %d staged papers\n", len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		exists, err := p.store.HasPaper(entry.ID)
		if err != nil {
			return result, err
		}
		if exists {
			fmt.Fprintf(p.out, "skipped: %s (already collected)\n", entry.ID)
			stage.Remove(entry.ID)
			result.Skipped++
			continue
		}

		if _, err := os.Stat(entry.PDFPath); err != nil {
			fmt.Fprintf(p.out, "dropped: %s (PDF missing: %s)\n", entry.ID, entry.PDFPath)
			stage.Remove(entry.ID)
			result.Failed++
			continue
		}

		dup, err := p.processPaper(ctx, entry.Paper, entry.PDFPath)
		if err != nil {
			fmt.Fprintf(p.out, "failed:  %s (%v)\n", entry.ID, err)
			result.Failed++
			continue
		}
		stage.Remove(entry.ID)
		if dup {
			result.Duplicates++
		} else {
			result.Processed++
		}
	}

	if err := stage.Flush(); err != nil {
		return result, err
	}
	fmt.Fprintf(p.out, "\nBatch summary: %d processed, %d skipped, %d duplicates, %d failed (total: %d)\n",
		result.Processed, result.Skipped, result.Duplicates, result.Failed, result.Total())
	return result, nil
}

// IngestURL collects a single paper from a URL. arXiv URLs are routed
// through the arXiv API for full metadata; any other URL is resolved to
// a PDF link and described from the page itself. With downloadOnly the
// paper is staged instead of processed.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string, downloadOnly bool) (BatchResult, error) {
	var result BatchResult

	paper, err := p.describeURL(ctx, rawURL)
	if err != nil {
		return result, err
	}

	exists, err := p.store.HasPaper(paper.ID)
	if err != nil {
		return result, err
	}
	if exists {
		fmt.Fprintf(p.out, "skipped: %s (already collected)\n", paper.ID)
		result.Skipped++
		return result, nil
	}

	if downloadOnly {
		stage, err := staging.Open(p.papersDir())
		if err != nil {
			return result, err
		}
		if stage.Contains(paper.ID) {
			fmt.Fprintf(p.out, "skipped: %s (already staged)\n", paper.ID)
			result.Skipped++
			return result, nil
		}

		fmt.Fprintf(p.out, "downloading: %s (%s)\n", paper.ID, paper.Title)
		pdfPath, _, err := p.fetcher.Fetch(ctx, paper.PDFURL, p.pdfDir(), paper.ID)
		if err != nil {
			return result, err
		}
		if err := fetch.WriteMetadata(paper, p.pdfDir()); err != nil {
			fmt.Fprintf(p.out, "  warning: metadata write failed: %v\n", err)
		}
		stage.Append(types.StagingEntry{
			Paper:        paper,
			PDFPath:      pdfPath,
			DownloadedAt: time.Now().UTC(),
		})
		if err := stage.Flush(); err != nil {
			return result, err
		}
		result.Downloaded++
		return result, nil
	}

	if err := p.collectOne(ctx, paper, &result); err != nil {
		result.Failed++
		return result, err
	}
	return result, nil
}

// IngestURLFile reads URLs from a file, one per line, and ingests each.
// Blank lines and lines starting with # are ignored. Per-URL failures
// are reported and counted without stopping the batch.
func (p *Pipeline) IngestURLFile(ctx context.Context, path string, downloadOnly bool) (BatchResult, error) {
	var result BatchResult

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("opening URL file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		one, err := p.IngestURL(ctx, line, downloadOnly)
		result.Processed += one.Processed
		result.Downloaded += one.Downloaded
		result.Skipped += one.Skipped
		result.Duplicates += one.Duplicates
		result.Failed += one.Failed
		if err != nil {
			fmt.Fprintf(p.out, "failed:  %s (%v)\n", line, err)
			if one.Failed == 0 {
				result.Failed++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading URL file: %w", err)
	}
	return result, nil
}

// describeURL turns a URL into a Paper descriptor via the matching source.
func (p *Pipeline) describeURL(ctx context.Context, rawURL string) (types.Paper, error) {
	if source.IsArxivURL(rawURL) {
		id := source.ExtractArxivID(rawURL)
		if id == "" {
			return types.Paper{}, fmt.Errorf("no arXiv ID found in %s", rawURL)
		}
		return p.arxiv.Lookup(ctx, id)
	}

	link, err := p.web.ResolvePDFLink(ctx, rawURL)
	if err != nil {
		return types.Paper{}, err
	}
	if link.PDFURL == "" {
		return types.Paper{}, fmt.Errorf("no PDF link found on %s", rawURL)
	}
	return p.web.Describe(rawURL, link), nil
}

// processPaper extracts text from a downloaded PDF, writes the text file,
// runs duplicate detection, and persists the paper. It reports dup=true
// after removing the duplicate's PDF.
func (p *Pipeline) processPaper(ctx context.Context, paper types.Paper, pdfPath string) (bool, error) {
	res, err := p.chain.Extract(ctx, pdfPath)
	if err != nil {
		return false, err
	}
	for _, a := range res.Attempts {
		fmt.Fprintf(p.out, "  warning: %s extraction failed: %s\n", a.Strategy, a.Err)
	}
	fmt.Fprintf(p.out, "  extracted %d characters via %s\n", len(res.Text), res.Strategy)

	if err := p.writeText(paper.ID, res.Text); err != nil {
		return false, err
	}

	// Web papers carry no feed metadata; recover an abstract from the
	// extracted text.
	if paper.Abstract == "" {
		paper.Abstract = abstractFromText(res.Text)
	}

	recent, err := p.store.RecentPapers(p.cfg.Dedupe.RecentWindow)
	if err != nil {
		return false, err
	}
	// A re-crawled paper must not match its own stored row.
	others := recent[:0]
	for _, rec := range recent {
		if rec.ID != paper.ID {
			others = append(others, rec)
		}
	}
	check := p.detector.Check(paper.Title, res.Text, others)
	if check.IsDuplicate {
		fmt.Fprintf(p.out, "duplicate: %s matches %s (title %.2f, content %.2f)\n",
			paper.ID, check.MatchedID, check.TitleSimilarity, check.ContentSimilarity)
		if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(p.out, "  warning: removing duplicate PDF: %v\n", err)
		}
		return true, nil
	}

	outcome, err := p.store.UpsertPaper(store.PaperRecord{
		ID:        paper.ID,
		Title:     paper.Title,
		Published: paper.Published,
		Authors:   paper.Authors,
		Abstract:  paper.Abstract,
		FullText:  res.Text,
		SourceURL: paper.SourceURL,
		PDFURL:    paper.PDFURL,
		Source:    paper.Source,
	})
	if err != nil {
		return false, err
	}

	if err := p.store.UpsertIndexable(store.IndexableContent{
		SourceType:  "research_paper",
		SourceID:    paper.ID,
		Title:       paper.Title,
		Description: paper.Abstract,
		URL:         paper.SourceURL,
		Content:     res.Text,
		Metadata:    paperMetadata(paper),
		DateCreated: paper.Published,
	}); err != nil {
		return false, err
	}

	fmt.Fprintf(p.out, "%s: %s (%s)\n", outcome, paper.ID, paper.Title)
	return false, nil
}

// writeText stores the extracted text next to the PDFs for inspection.
func (p *Pipeline) writeText(id, text string) error {
	dir := p.textDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating text directory: %w", err)
	}
	path := filepath.Join(dir, id+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing text file: %w", err)
	}
	return nil
}

// paperMetadata builds the metadata map stored with indexable content.
func paperMetadata(paper types.Paper) map[string]any {
	meta := map[string]any{
		"authors": paper.Authors,
		"source":  paper.Source,
		"url":     paper.SourceURL,
	}
	if !paper.Published.IsZero() {
		meta["published_date"] = paper.Published.UTC().Format("2006-01-02")
		meta["year"] = paper.Published.Year()
	}
	if len(paper.Categories) > 0 {
		meta["categories"] = paper.Categories
	}
	return meta
}

// abstractCap bounds an abstract recovered from extracted text.
const abstractCap = 2000

// abstractFromText pulls the abstract section out of extracted text.
func abstractFromText(text string) string {
	abstract := strings.TrimSpace(extract.ParseSections(text).Abstract)
	if len(abstract) > abstractCap {
		cut := abstractCap
		for cut > 0 && !utf8.RuneStart(abstract[cut]) {
			cut--
		}
		abstract = abstract[:cut]
	}
	return abstract
}
