package export

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-tracker/constants"
)

// headerScanRows bounds how far down the sheet subject headers are searched.
const headerScanRows = 10

var (
	reSubjectCode = regexp.MustCompile(`^` + constants.SubjectCodePattern + `$`)
	reSortKey     = regexp.MustCompile(`^([A-Z]+)(\d+)([A-Z]?)`)
)

// SubjectColumns are the 1-based columns of one subject block.
type SubjectColumns struct {
	Internal int `json:"internal"`
	External int `json:"external"`
	Total    int `json:"total"`
	Result   int `json:"result"`
}

// Layout describes where a sheet expects each value. Columns are 1-based;
// zero means absent.
type Layout struct {
	Sheet         string                    `json:"sheet"`
	HeaderRow     int                       `json:"header_row"`
	DataStartRow  int                       `json:"data_start_row"`
	SlNoCol       int                       `json:"sl_no_col,omitempty"`
	USNCol        int                       `json:"usn_col"`
	NameCol       int                       `json:"name_col"`
	Subjects      map[string]SubjectColumns `json:"subjects"`
	SubjectOrder  []string                  `json:"subject_order"`
	ActivitySlots []string                  `json:"activity_slots,omitempty"`
	TotalCol      int                       `json:"total_col,omitempty"`
	PercentageCol int                       `json:"percentage_col,omitempty"`
}

// InspectTemplate opens a workbook and reports its discovered layout.
func InspectTemplate(path, sheet string) (*Layout, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer func() { _ = f.Close() }()
	return discover(f, sheet)
}

// discover finds the subject header row, the block columns, the identity
// columns and the Total/Percentage columns. Merged header cells are read
// through their top-left value.
func discover(f *excelize.File, sheet string) (*Layout, error) {
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	merged, err := mergedText(f, sheet)
	if err != nil {
		return nil, err
	}
	text := func(col, row int) string {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if v, ok := merged[cell]; ok {
			return strings.TrimSpace(v)
		}
		if row-1 < len(rows) && col-1 < len(rows[row-1]) {
			return strings.TrimSpace(rows[row-1][col-1])
		}
		return ""
	}

	l := &Layout{Sheet: sheet, Subjects: map[string]SubjectColumns{}}
	for r := 1; r <= headerScanRows && r <= len(rows) && l.HeaderRow == 0; r++ {
		for c := 1; c <= len(rows[r-1]); c++ {
			if isBlockHeader(rows[r-1][c-1]) {
				l.HeaderRow = r
				break
			}
		}
	}
	if l.HeaderRow == 0 {
		return nil, fmt.Errorf("no subject code header in the first %d rows of %q", headerScanRows, sheet)
	}

	owned := map[int]bool{}
	header := rows[l.HeaderRow-1]
	for c := 1; c <= len(header); {
		v := strings.TrimSpace(header[c-1])
		if !isBlockHeader(v) {
			c++
			continue
		}
		l.Subjects[v] = SubjectColumns{Internal: c, External: c + 1, Total: c + 2, Result: c + 3}
		l.SubjectOrder = append(l.SubjectOrder, v)
		if strings.Contains(v, "/") {
			l.ActivitySlots = append(l.ActivitySlots, v)
		}
		for i := 0; i < 4; i++ {
			owned[c+i] = true
		}
		c += 4
	}

	// header band: rows below the codes whose mark columns still hold labels
	l.DataStartRow = l.HeaderRow + 1
	for ; l.DataStartRow <= len(rows); l.DataStartRow++ {
		if !isLabelRow(rows[l.DataStartRow-1], l.Subjects) {
			break
		}
	}

	maxCol := 0
	for _, r := range rows[l.HeaderRow-1 : l.DataStartRow-1] {
		maxCol = max(maxCol, len(r))
	}
	for c := 1; c <= maxCol; c++ {
		if owned[c] {
			continue
		}
		var parts []string
		for r := l.HeaderRow; r < l.DataStartRow; r++ {
			if v := text(c, r); v != "" {
				parts = append(parts, strings.ToLower(v))
			}
		}
		combined := strings.Join(parts, " ")
		switch {
		case strings.Contains(combined, "percent") || strings.Contains(combined, "%"):
			l.PercentageCol = c
		case strings.Contains(combined, "total"):
			l.TotalCol = c
		case strings.Contains(combined, "usn") || strings.Contains(combined, "seat"):
			l.USNCol = c
		case strings.Contains(combined, "name"):
			if l.NameCol == 0 {
				l.NameCol = c
			}
		case strings.HasPrefix(combined, "sl") || strings.HasPrefix(combined, "s.no") || strings.HasPrefix(combined, "s no"):
			l.SlNoCol = c
		}
	}
	if l.USNCol == 0 {
		l.USNCol = 1
	}
	if l.NameCol == 0 {
		l.NameCol = l.USNCol + 1
	}
	return l, nil
}

// freshLayout lays out a new sheet for the given subject codes: optional
// serial, USN, Name, four columns per code, Total, Percentage.
func freshLayout(sheet string, codes []string) *Layout {
	l := &Layout{
		Sheet:        sheet,
		HeaderRow:    1,
		DataStartRow: 3,
		SlNoCol:      1,
		USNCol:       2,
		NameCol:      3,
		Subjects:     map[string]SubjectColumns{},
	}
	c := 4
	for _, code := range codes {
		l.Subjects[code] = SubjectColumns{Internal: c, External: c + 1, Total: c + 2, Result: c + 3}
		l.SubjectOrder = append(l.SubjectOrder, code)
		c += 4
	}
	l.TotalCol = c
	l.PercentageCol = c + 1
	return l
}

func mergedText(f *excelize.File, sheet string) (map[string]string, error) {
	mcs, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells: %w", err)
	}
	out := map[string]string{}
	for _, mc := range mcs {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		for r := r1; r <= r2; r++ {
			for c := c1; c <= c2; c++ {
				cell, _ := excelize.CoordinatesToCellName(c, r)
				out[cell] = mc.GetCellValue()
			}
		}
	}
	return out, nil
}

// isBlockHeader accepts a subject code or an activity slot such as
// "BPEK559/BNSK559".
func isBlockHeader(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, part := range strings.Split(v, "/") {
		if !reSubjectCode.MatchString(strings.TrimSpace(part)) {
			return false
		}
	}
	return true
}

func isLabelRow(row []string, blocks map[string]SubjectColumns) bool {
	for _, cols := range blocks {
		for _, c := range []int{cols.Internal, cols.External, cols.Total} {
			if c-1 >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c-1])
			if v == "" {
				continue
			}
			if _, err := strconv.Atoi(v); err != nil {
				return true
			}
		}
	}
	return false
}

// IsActivity reports whether code is a fixed-internal activity subject.
func IsActivity(code string) bool {
	return code != "" && code[len(code)-1] == '9'
}

// SortCodes orders subject codes by letter prefix, then number, then suffix.
func SortCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		pi, ni, si := sortKey(codes[i])
		pj, nj, sj := sortKey(codes[j])
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		return si < sj
	})
}

func sortKey(code string) (string, int, string) {
	m := reSortKey.FindStringSubmatch(code)
	if m == nil {
		return code, 0, ""
	}
	n, _ := strconv.Atoi(m[2])
	return m[1], n, m[3]
}
