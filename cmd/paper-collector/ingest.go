// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-collector/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [urls...]",
	Short: "Collect individual papers by URL",
	Long: `Ingest collects papers given directly by URL. arXiv links (abs or pdf)
are resolved through the arXiv API for full metadata; any other page is
scanned for a PDF link. With --file, URLs are read one per line; blank
lines and # comments are ignored. With --download-only, papers are staged
instead of processed.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("file", "", "file containing URLs, one per line")
	ingestCmd.Flags().Bool("download-only", false, "stage downloads instead of processing them")
	ingestCmd.Flags().Duration("delay", 0, "delay before each download (default 3s)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	urlFile, _ := cmd.Flags().GetString("file")
	if len(args) == 0 && urlFile == "" {
		return fmt.Errorf("provide one or more URLs, or --file")
	}
	downloadOnly, _ := cmd.Flags().GetBool("download-only")

	cfg := loadConfig(cmd)
	p, st, err := buildPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	var result pipeline.BatchResult
	for _, rawURL := range args {
		one, err := p.IngestURL(cmd.Context(), rawURL, downloadOnly)
		result.Processed += one.Processed
		result.Downloaded += one.Downloaded
		result.Skipped += one.Skipped
		result.Duplicates += one.Duplicates
		result.Failed += one.Failed
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", rawURL, err)
			if one.Failed == 0 {
				result.Failed++
			}
		}
	}

	if urlFile != "" {
		fromFile, err := p.IngestURLFile(cmd.Context(), urlFile, downloadOnly)
		result.Processed += fromFile.Processed
		result.Downloaded += fromFile.Downloaded
		result.Skipped += fromFile.Skipped
		result.Duplicates += fromFile.Duplicates
		result.Failed += fromFile.Failed
		if err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed ingestion", result.Failed)
	}
	return nil
}
