package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/results-tracker/internal/app"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse files as one stream and print the results as JSON",
	Long: `Treats the given files, in order, as a single stream of pages and
prints one result object per student found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	proc, err := app.NewProcessor(cfg, nil, logger)
	if err != nil {
		return err
	}
	stream := entity.Stream{ID: filepath.Base(args[0]), Paths: args}
	res, err := proc.ProcessStream(cmd.Context(), stream)
	if err != nil {
		return err
	}

	out := make([]entity.Result, 0, len(res.Documents))
	for _, d := range res.Documents {
		out = append(out, d.Result())
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
