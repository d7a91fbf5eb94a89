// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process staged PDFs: extract, dedupe, and persist",
	Long: `Process drains the staging queue left by "paper-collector download":
each staged PDF is extracted, checked against recent papers for
near-duplicates, and persisted. Entries that fail persistence stay in the
queue for a retry.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Int("max", 0, "maximum number of staged papers to process (0 = all)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	max, _ := cmd.Flags().GetInt("max")

	p, st, err := buildPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := p.ProcessStaged(cmd.Context(), max)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d staged paper(s) failed processing", result.Failed)
	}
	return nil
}
