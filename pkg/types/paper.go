// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper describes one candidate paper before persistence. Source adapters
// create Papers; the fetcher and pipeline consume them.
type Paper struct {
	// ID is a stable string key: the arXiv short ID for feed results
	// (e.g. "2104.08653"), or a URL hash for arbitrary web papers.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories lists source category tags (e.g. "cs.LG"). Optional.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// SourceURL is the page the paper came from (abstract page or web page).
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFURL is the resolved direct link to the PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Published is the publication or preprint date.
	Published time.Time `json:"published" yaml:"published"`

	// Source identifies which adapter produced the descriptor ("arxiv", "web").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// StagingEntry is a downloaded-but-not-yet-processed paper held in the
// pending-papers staging file.
type StagingEntry struct {
	Paper `yaml:",inline"`

	// PDFPath is the local filesystem path of the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// DownloadedAt records when the PDF landed on disk.
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}
