package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/results-tracker/internal/app"
	"github.com/joseph-ayodele/results-tracker/internal/core/variant"
)

var ocrShowText bool

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Show the text variants recovered from a file and their scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func init() {
	ocrCmd.Flags().BoolVar(&ocrShowText, "text", false, "print each variant's text")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	ex, err := app.NewExtractor(cfg, logger)
	if err != nil {
		return err
	}
	res, err := ex.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s via %s, %d page(s) in %s\n",
		args[0], res.SourceType, res.Method, len(res.Pages), res.Duration.Round(time.Millisecond))
	for _, page := range res.Pages {
		fmt.Fprintf(w, "page %d (%s)\n", page.Index+1, page.Quality)
		if page.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", page.Err)
			continue
		}
		// Select fills in each candidate's score.
		best, _ := variant.Select(page.Variants)
		for _, v := range page.Variants {
			mark := " "
			if v.Label == best.Label {
				mark = "*"
			}
			fmt.Fprintf(w, " %s %-10s score=%d\n", mark, v.Label, v.Score)
			if ocrShowText {
				fmt.Fprintln(w, indent(v.Text, "    "))
			}
		}
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}
