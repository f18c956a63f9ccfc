package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meigma/collate"
)

var verifyConcurrency int

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check packed resources against their source files",
	Long: `Verify reads every resource in the table of contents from the collated pages
and compares its SHA-256 digest with the file at the resource's path.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().IntVarP(&verifyConcurrency, "concurrency", "j", 0, "resources checked at once (0 for GOMAXPROCS)")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = verifyConcurrency
	}
	acc, err := openAccessor()
	if err != nil {
		return err
	}

	bar := newProgress(int64(acc.Len()), false, !noProgress)
	report, err := acc.Verify(cmd.Context(),
		collate.VerifyWithConcurrency(cfg.Concurrency),
		collate.VerifyWithProgress(func(ev collate.ProgressEvent) {
			bar.update(int64(ev.FilesDone), ev.Path)
		}),
	)
	bar.finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range report.Failed {
		slog.Debug("verification failed", "resource", res.Path, "packed", res.Packed, "source", res.Source)
		fmt.Fprintf(out, "FAIL %s: %v\n", res.Path, res.Err)
	}
	fmt.Fprintf(out, "%d resources checked, %d failed\n", report.Checked, len(report.Failed))
	if !report.OK() {
		return fmt.Errorf("%d resources failed verification", len(report.Failed))
	}
	return nil
}
