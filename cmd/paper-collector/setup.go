// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-collector/internal/container"
	"github.com/pdiddy/paper-collector/internal/extract"
	"github.com/pdiddy/paper-collector/internal/fetch"
	"github.com/pdiddy/paper-collector/internal/httputil"
	"github.com/pdiddy/paper-collector/internal/pipeline"
	"github.com/pdiddy/paper-collector/internal/secrets"
	"github.com/pdiddy/paper-collector/internal/source"
	"github.com/pdiddy/paper-collector/internal/store"
	"github.com/pdiddy/paper-collector/pkg/types"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultDownloadDelay = 3 * time.Second
	defaultUserAgent     = "paper-collector/0.1"
	defaultMaxResults    = 50
)

// loadConfig assembles the collector configuration from viper-backed
// config file values, environment variables, and command flags. Flags
// win over config values; built-in defaults fill the rest.
func loadConfig(cmd *cobra.Command) types.CollectorConfig {
	cfg := types.CollectorConfig{
		DataDir: viper.GetString("data_dir"),
		DBPath:  viper.GetString("db_path"),
		Source: types.SourceConfig{
			Categories:  viper.GetStringSlice("source.categories"),
			SearchQuery: viper.GetString("source.search_query"),
			MaxResults:  viper.GetInt("source.max_results"),
		},
		Extract: types.ExtractConfig{
			OCREnabled:  viper.GetBool("extract.ocr_enabled"),
			OCRFallback: viper.GetBool("extract.ocr_fallback"),
			OCRModel:    viper.GetString("extract.ocr_model"),
			OCRAPIKey:   secretDefault(secrets.OCRAPIKey, viper.GetString("extract.ocr_api_key")),
		},
		Dedupe: types.DedupeConfig{
			Enabled:          true,
			TitleThreshold:   0.9,
			ContentThreshold: 0.8,
			RecentWindow:     100,
		},
	}

	if viper.IsSet("dedupe.enabled") {
		cfg.Dedupe.Enabled = viper.GetBool("dedupe.enabled")
	}
	if v := viper.GetFloat64("dedupe.title_threshold"); v > 0 {
		cfg.Dedupe.TitleThreshold = v
	}
	if v := viper.GetFloat64("dedupe.content_threshold"); v > 0 {
		cfg.Dedupe.ContentThreshold = v
	}
	if v := viper.GetInt("dedupe.recent_window"); v > 0 {
		cfg.Dedupe.RecentWindow = v
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "db", "collector.db")
	}

	if cfg.Source.MaxResults <= 0 {
		cfg.Source.MaxResults = defaultMaxResults
	}
	if len(cfg.Source.Categories) == 0 {
		cfg.Source.Categories = []string{"cs.AI", "cs.LG"}
	}

	timeout := viper.GetDuration("http.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := viper.GetString("http.user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpCfg := types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: userAgent,
		ProxyURL:  viper.GetString("http.proxy_url"),
	}
	cfg.Source.HTTPConfig = httpCfg
	cfg.Fetch.HTTPConfig = httpCfg

	cfg.Fetch.DownloadDelay = viper.GetDuration("fetch.download_delay")
	if cfg.Fetch.DownloadDelay == 0 {
		cfg.Fetch.DownloadDelay = defaultDownloadDelay
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		cfg.Fetch.DownloadDelay = delay
	}

	return cfg
}

// buildPipeline constructs the pipeline and its store from config.
// The caller must Close the returned store.
func buildPipeline(cfg types.CollectorConfig, w io.Writer) (*pipeline.Pipeline, *store.Store, error) {
	client, err := httputil.NewClient(cfg.Source.HTTPConfig)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	// The container runtime is optional; without one the extraction
	// chain simply has no markitdown strategy.
	rt, _ := container.DetectRuntime()
	chain := extract.ChainFromConfig(cfg.Extract, client, rt)

	p := pipeline.New(cfg, st,
		fetch.New(client, cfg.Fetch),
		&source.ArxivSource{Client: client, Config: cfg.Source},
		&source.WebSource{Client: client, Config: cfg.Source},
		chain, w)
	return p, st, nil
}
