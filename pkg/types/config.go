// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-collector/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// ProxyURL routes requests through the given proxy when non-empty.
	ProxyURL string `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty"`
}

// SourceConfig holds settings for the source adapters.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Categories lists the arXiv categories to collect (e.g. "cs.AI", "cs.LG").
	Categories []string `json:"categories" yaml:"categories"`

	// SearchQuery is an optional free-text arXiv query combined with Categories.
	SearchQuery string `json:"search_query,omitempty" yaml:"search_query,omitempty"`

	// MaxResults is the maximum number of feed entries per query (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FetchConfig holds settings for the PDF fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the blocking wait before each network download
	// (default 3s, per arXiv rate-limit guidance).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// ExtractConfig holds settings for the text extraction chain.
type ExtractConfig struct {
	// OCREnabled places the remote OCR strategy first in the chain.
	OCREnabled bool `json:"ocr_enabled" yaml:"ocr_enabled"`

	// OCRFallback allows falling through to local strategies when OCR fails.
	// When false and OCR is enabled, an OCR failure fails the extraction.
	OCRFallback bool `json:"ocr_fallback" yaml:"ocr_fallback"`

	// OCRModel is the model identifier sent to the OCR service.
	OCRModel string `json:"ocr_model,omitempty" yaml:"ocr_model,omitempty"`

	// OCRAPIKey authenticates against the OCR service. Usually loaded
	// from .secrets/ocr-api-key rather than config.
	OCRAPIKey string `json:"ocr_api_key,omitempty" yaml:"ocr_api_key,omitempty"`
}

// DedupeConfig holds settings for near-duplicate detection.
type DedupeConfig struct {
	// Enabled turns the duplicate check on or off (default true).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TitleThreshold is the normalized edit-distance similarity above which
	// two titles are considered the same paper (default 0.9).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// ContentThreshold is the shingle Jaccard similarity above which two
	// texts are considered the same paper (default 0.8).
	ContentThreshold float64 `json:"content_threshold" yaml:"content_threshold"`

	// RecentWindow is how many recently crawled records to compare against
	// (default 100). A bounded window, not a full scan.
	RecentWindow int `json:"recent_window" yaml:"recent_window"`
}

// CollectorConfig groups all stage configurations for the pipeline.
type CollectorConfig struct {
	// DataDir is the base data directory (contains papers/pdf, papers/text).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DBPath is the SQLite database location (default DataDir/db/collector.db).
	DBPath string `json:"db_path" yaml:"db_path"`

	Source  SourceConfig  `json:"source" yaml:"source"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Dedupe  DedupeConfig  `json:"dedupe" yaml:"dedupe"`
}
