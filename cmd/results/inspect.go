package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/results-tracker/internal/export"
)

var inspectSheet string

var inspectCmd = &cobra.Command{
	Use:   "inspect <template.xlsx>",
	Short: "Print the column layout discovered in a template workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := export.InspectTemplate(args[0], inspectSheet)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(layout)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "sheet name (default the active sheet)")
	rootCmd.AddCommand(inspectCmd)
}
