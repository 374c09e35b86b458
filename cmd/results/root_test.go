package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-tracker/internal/export"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RESULTS_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")
	configPath = ""

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestInspectPrintsLayout(t *testing.T) {
	f := excelize.NewFile()
	set := func(cell, v string) { require.NoError(t, f.SetCellValue("Sheet1", cell, v)) }
	set("A1", "Sl No")
	set("B1", "USN")
	set("C1", "Name")
	set("D1", "BCS401")
	require.NoError(t, f.MergeCell("Sheet1", "D1", "G1"))
	for i, label := range []string{"INT", "EXT", "TOT", "RES"} {
		cell, _ := excelize.CoordinatesToCellName(4+i, 2)
		set(cell, label)
	}
	path := filepath.Join(t.TempDir(), "tpl.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)

	var layout export.Layout
	require.NoError(t, json.Unmarshal([]byte(out), &layout))
	assert.Equal(t, 3, layout.DataStartRow)
	assert.Equal(t, 2, layout.USNCol)
	assert.Equal(t, export.SubjectColumns{Internal: 4, External: 5, Total: 6, Result: 7}, layout.Subjects["BCS401"])
}

func TestBatchEmptyInboxWritesWorkbook(t *testing.T) {
	inbox := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.xlsx")
	defer func() { batchOut = "" }()

	stdout, err := execute(t, "batch", inbox, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 students from 0 streams")
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestParseRequiresFiles(t *testing.T) {
	_, err := execute(t, "parse")
	assert.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("ocr:\n  engine: paddle\n"), 0o644))
	t.Setenv("LOG_LEVEL", "error")
	configPath = ""

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"--config", cfgFile, "inspect", "x.xlsx"})
	defer func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	}()
	assert.Error(t, rootCmd.Execute())
}
