package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/results-tracker/internal/common"
)

var (
	configPath string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "results",
	Short: "Extract student results from marks cards into a workbook",
	Long: `results reads marks-card PDFs and photos, recovers each student's
subject marks and writes them into an XLSX results sheet.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+common.ConfigPathEnv+")")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := common.LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger = common.NewLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}
