package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/results-tracker/internal/app"
	"github.com/joseph-ayodele/results-tracker/internal/ingest"
	"github.com/joseph-ayodele/results-tracker/internal/repository"
	"github.com/joseph-ayodele/results-tracker/internal/services/batch"
)

var (
	batchOut      string
	batchTemplate string
	batchPersist  bool
	batchHidden   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Process every stream under a directory into one workbook",
	Long: `Each PDF, each loose image and each folder of images under <dir> is
one stream. Streams are processed concurrently; a failing stream is reported
and skipped. Students are written sorted by USN.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output XLSX path (default <dir>/../results.xlsx)")
	batchCmd.Flags().StringVar(&batchTemplate, "template", "", "template workbook to fill")
	batchCmd.Flags().BoolVar(&batchPersist, "persist", false, "record runs and students in the database")
	batchCmd.Flags().BoolVar(&batchHidden, "include-hidden", false, "include hidden files and folders")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]
	if batchOut == "" {
		batchOut = filepath.Join(filepath.Dir(filepath.Clean(dir)), "results.xlsx")
	}
	if batchTemplate != "" {
		cfg.Export.TemplatePath = batchTemplate
	}

	var db *repository.DB
	if batchPersist {
		var err error
		if db, err = app.OpenDB(ctx, cfg, logger); err != nil {
			return err
		}
		defer db.Close()
	}
	proc, err := app.NewProcessor(cfg, db, logger)
	if err != nil {
		return err
	}

	svc := batch.NewService(proc, app.NewExporter(cfg, logger), logger,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithStreamTimeout(cfg.Batch.StreamTimeout),
	)
	rep, err := svc.Run(ctx, batch.Request{
		Root:    dir,
		OutPath: batchOut,
		Options: ingest.Options{IncludeHidden: batchHidden},
	})
	for _, s := range rep.Streams {
		if s.Err != nil {
			cmd.PrintErrf("FAILED %s: %v\n", s.Stream.ID, s.Err)
		}
	}
	if err != nil {
		return err
	}
	cmd.Printf("%d students from %d streams (%d failed) -> %s\n",
		len(rep.Documents), len(rep.Streams), rep.Failed, rep.OutPath)
	return nil
}
