package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// writeTemplate builds a two-row header template:
//
//	A: Sl No | B: USN | C: Student Name | D-G: BCS401 | H-K: BAI786 | L-O: BPEK559/BNSK559 | P: Grand Total | Q: Percentage
func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	const sh = "Sheet1"
	set := func(cell string, v any) { require.NoError(t, f.SetCellValue(sh, cell, v)) }
	merge := func(a, b string) { require.NoError(t, f.MergeCell(sh, a, b)) }

	set("A1", "Sl No")
	set("B1", "USN")
	set("C1", "Student Name")
	set("D1", "BCS401")
	merge("D1", "G1")
	set("H1", "BAI786")
	merge("H1", "K1")
	set("L1", "BPEK559/BNSK559")
	merge("L1", "O1")
	set("P1", "Grand Total")
	merge("P1", "P2")
	set("Q1", "Percentage")
	merge("Q1", "Q2")
	for _, start := range []int{4, 8, 12} {
		for i, label := range []string{"INT", "EXT", "TOT", "RES"} {
			cell, _ := excelize.CoordinatesToCellName(start+i, 2)
			set(cell, label)
		}
	}

	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func row(code string, in, ex, tot int, res string) entity.SubjectRow {
	return entity.SubjectRow{
		Code: code, Internal: entity.IntPtr(in), External: entity.IntPtr(ex), Total: entity.IntPtr(tot),
		Result: entity.StrPtr(res), Flag: entity.FlagOK, Confidence: 1,
	}
}

func docs() []entity.StudentDocument {
	return []entity.StudentDocument{
		{
			Identity: entity.Identity{USN: entity.StrPtr("1AB21AI001"), Name: entity.StrPtr("ASHA RAO")},
			Subjects: []entity.SubjectRow{
				row("BPEK559", 90, 0, 90, "P"),
				row("BCS401", 15, 30, 45, "P"),
				row("BAI786", 10, 100, 110, "P"),
				row("BXX999Z", 40, 40, 80, "P"),
			},
		},
		{
			Identity: entity.Identity{USN: entity.StrPtr("1AB21AI002")},
			Subjects: []entity.SubjectRow{row("BCS401", 40, 40, 80, "P")},
		},
	}
}

func cellStyleColor(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	if id == 0 {
		return ""
	}
	st, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(st.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(st.Fill.Color[0])
}

func TestInspectTemplate(t *testing.T) {
	l, err := InspectTemplate(writeTemplate(t), "")
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", l.Sheet)
	assert.Equal(t, 1, l.HeaderRow)
	assert.Equal(t, 3, l.DataStartRow)
	assert.Equal(t, 1, l.SlNoCol)
	assert.Equal(t, 2, l.USNCol)
	assert.Equal(t, 3, l.NameCol)
	assert.Equal(t, []string{"BCS401", "BAI786", "BPEK559/BNSK559"}, l.SubjectOrder)
	assert.Equal(t, SubjectColumns{Internal: 8, External: 9, Total: 10, Result: 11}, l.Subjects["BAI786"])
	assert.Equal(t, []string{"BPEK559/BNSK559"}, l.ActivitySlots)
	assert.Equal(t, 16, l.TotalCol)
	assert.Equal(t, 17, l.PercentageCol)
}

func TestInspectTemplateWithoutCodes(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "nothing here"))
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := InspectTemplate(path, "")
	require.Error(t, err)
}

func TestExportTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemplatePath = writeTemplate(t)
	s := NewService(cfg, nil)

	data, err := s.ExportXLSX(context.Background(), docs())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	get := func(cell string) string {
		v, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "1", get("A3"))
	assert.Equal(t, "1AB21AI001", get("B3"))
	assert.Equal(t, "ASHA RAO", get("C3"))
	assert.Equal(t, "15", get("D3"))
	assert.Equal(t, "45", get("F3"))
	assert.Equal(t, "P", get("G3"))
	assert.Equal(t, "110", get("J3"))
	assert.Equal(t, "90", get("L3"), "activity subject fills the activity slot")
	assert.Equal(t, "245", get("P3"), "45 + 110 + 90")
	assert.Equal(t, "61.3", get("Q3"), "245 / 400")

	assert.Contains(t, cellStyleColor(t, f, "Sheet1", "D3"), "FFD60A", "internal below pass")
	assert.Empty(t, cellStyleColor(t, f, "Sheet1", "H3"), "excluded from fail colouring")
	assert.Contains(t, cellStyleColor(t, f, "Sheet1", "L3"), "CFE2F3")

	assert.Equal(t, "2", get("A4"))
	assert.Equal(t, "1AB21AI002", get("B4"))
	assert.Equal(t, "", get("C4"))
	assert.Equal(t, "80", get("P4"))
	assert.Equal(t, "80", get("Q4"))
	assert.Empty(t, cellStyleColor(t, f, "Sheet1", "D4"))
}

func TestExportFresh(t *testing.T) {
	s := NewService(DefaultConfig(), nil)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, s.ExportFile(context.Background(), docs(), path))

	l, err := InspectTemplate(path, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"BAI786", "BCS401", "BPEK559", "BXX999Z"}, l.SubjectOrder)
	assert.Equal(t, 3, l.DataStartRow)
	assert.Equal(t, 2, l.USNCol)
	assert.Equal(t, 3, l.NameCol)
	assert.Equal(t, 20, l.TotalCol)
	assert.Equal(t, 21, l.PercentageCol)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(defaultSheet, "T3")
	require.NoError(t, err)
	assert.Equal(t, "325", v, "110 + 45 + 90 + 80")
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(DefaultConfig(), nil).ExportXLSX(ctx, docs())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSortCodes(t *testing.T) {
	codes := []string{"BCS402", "BAI786", "BCS40", "BCS401A", "BCS401", "X"}
	SortCodes(codes)
	assert.Equal(t, []string{"BAI786", "BCS40", "BCS401", "BCS401A", "BCS402", "X"}, codes)
}

func TestIsBlockHeader(t *testing.T) {
	assert.True(t, isBlockHeader("BCS401"))
	assert.True(t, isBlockHeader(" BPEK559/BNSK559 "))
	assert.False(t, isBlockHeader("USN"))
	assert.False(t, isBlockHeader("BCS401/"))
}
