// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Search arXiv and run the full collection pipeline",
	Long: `Collect searches the configured arXiv categories for recent papers,
downloads each new PDF, extracts its text, filters near-duplicates, and
persists the results to the local database. Papers already collected are
skipped unless --force-update is given.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().Int("max-results", 0, "maximum number of papers to consider (default from config)")
	collectCmd.Flags().Bool("force-update", false, "re-crawl papers already in the database")
	collectCmd.Flags().Duration("delay", 0, "delay before each download (default 3s)")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = cfg.Source.MaxResults
	}
	forceUpdate, _ := cmd.Flags().GetBool("force-update")

	p, st, err := buildPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := p.Collect(cmd.Context(), maxResults, forceUpdate)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed collection", result.Failed)
	}
	return nil
}
