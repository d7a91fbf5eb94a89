// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download PDFs and stage them for later processing",
	Long: `Download searches arXiv and fetches PDFs without extracting or
persisting anything. Each download is recorded in the staging queue
(pending_papers.json) so a later "paper-collector process" run can pick
it up. Useful for separating slow network work from CPU-bound extraction.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Int("max-results", 0, "maximum number of papers to consider (default from config)")
	downloadCmd.Flags().String("query", "", "free-text arXiv query (default: configured categories)")
	downloadCmd.Flags().Duration("delay", 0, "delay before each download (default 3s)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = cfg.Source.MaxResults
	}
	query, _ := cmd.Flags().GetString("query")

	p, st, err := buildPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := p.DownloadOnly(cmd.Context(), maxResults, query)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed download", result.Failed)
	}
	return nil
}
